package migration

import (
	"encoding/json"

	"github.com/rflorenc/substrate-reconciler/internal/models"
)

// applyNic returns n with its type, subnet and endpoints taken from the
// destination NIC. Computed endpoint fields are stripped.
func applyNic(n models.Nic, dst models.InstanceNic) models.Nic {
	n.NicType = dst.NicType
	n.SubnetReference = dst.SubnetReference.Clone()
	n.IPEndpointList = stripEndpoints(dst.IPEndpointList)
	return n
}

// stripEndpoints copies endpoints without destination-computed fields.
func stripEndpoints(eps []models.IPEndpoint) []models.IPEndpoint {
	if eps == nil {
		return nil
	}
	out := make([]models.IPEndpoint, len(eps))
	for i, ep := range eps {
		out[i] = ep.Stripped()
	}
	return out
}

// applyDisk returns a copy of d carrying the destination disk's device
// properties, size (when known) and data source reference (nil when the
// destination has none).
func applyDisk(d models.Disk, dst models.Disk) models.Disk {
	out := d.Clone()
	out.DeviceProperties = append(json.RawMessage(nil), dst.DeviceProperties...)
	if dst.DiskSizeMib != nil {
		size := *dst.DiskSizeMib
		out.DiskSizeMib = &size
	}
	out.DataSourceReference = dst.DataSourceReference.Clone()
	return out
}

// withSubnetUUID returns a copy of ref pointing at subnet uuid. A nil ref
// becomes a fresh subnet reference.
func withSubnetUUID(ref *models.Reference, uuid string) *models.Reference {
	if ref == nil {
		return &models.Reference{Kind: "subnet", UUID: uuid}
	}
	c := ref.Clone()
	c.UUID = uuid
	return c
}

// patchSubnet picks the destination subnet for pre-defined NIC patch i.
// "add" operations always get the first NIC's subnet; others get the same
// index, or the first NIC's subnet when the destination has fewer NICs.
func patchSubnet(i int, operation string, state *models.InstanceState) string {
	if operation == models.PatchOperationAdd || i >= len(state.Nics) {
		return state.SubnetUUID(0)
	}
	return state.SubnetUUID(i)
}
