package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// InstanceState is the authoritative post-migration state of a VM as read
// from the destination management plane.
type InstanceState struct {
	UUID        string
	Name        string
	ClusterUUID string
	Nics        []InstanceNic
	Disks       []Disk

	// Raw is the compacted VM document, stored verbatim as audit payload.
	Raw json.RawMessage
}

// InstanceNic pairs a NIC's observed type and subnet (from status) with the
// IP endpoints requested in its spec.
type InstanceNic struct {
	NicType         string
	SubnetReference *Reference
	IPEndpointList  []IPEndpoint
}

type vmDocument struct {
	Metadata struct {
		UUID string `json:"uuid"`
	} `json:"metadata"`
	Status struct {
		Name             string    `json:"name"`
		ClusterReference Reference `json:"cluster_reference"`
		Resources        struct {
			NicList []Nic `json:"nic_list"`
		} `json:"resources"`
	} `json:"status"`
	Spec struct {
		Resources struct {
			NicList  []Nic  `json:"nic_list"`
			DiskList []Disk `json:"disk_list"`
		} `json:"resources"`
	} `json:"spec"`
}

// ParseInstanceState decodes a VM document returned by GET /vms/{uuid}.
func ParseInstanceState(body []byte) (*InstanceState, error) {
	var doc vmDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parsing vm document: %w", err)
	}
	var raw bytes.Buffer
	if err := json.Compact(&raw, body); err != nil {
		return nil, fmt.Errorf("compacting vm document: %w", err)
	}

	state := &InstanceState{
		UUID:        doc.Metadata.UUID,
		Name:        doc.Status.Name,
		ClusterUUID: doc.Status.ClusterReference.UUID,
		Disks:       doc.Spec.Resources.DiskList,
		Raw:         raw.Bytes(),
	}
	specNics := doc.Spec.Resources.NicList
	for i, nic := range doc.Status.Resources.NicList {
		in := InstanceNic{
			NicType:         nic.NicType,
			SubnetReference: nic.SubnetReference,
		}
		if i < len(specNics) {
			in.IPEndpointList = specNics[i].IPEndpointList
		}
		state.Nics = append(state.Nics, in)
	}
	return state, nil
}

// SubnetUUID returns the subnet uuid of NIC i, or "" when out of range.
func (s *InstanceState) SubnetUUID(i int) string {
	if i < 0 || i >= len(s.Nics) || s.Nics[i].SubnetReference == nil {
		return ""
	}
	return s.Nics[i].SubnetReference.UUID
}
