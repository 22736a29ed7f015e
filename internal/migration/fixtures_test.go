package migration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rflorenc/substrate-reconciler/internal/models"
)

const (
	destCluster = "cl-dst"
	destAccount = "acct-pe-dst"
)

var testAccounts = map[string]string{destCluster: destAccount}

// vmDoc builds a destination VM document with the given number of NICs
// and disks.
func vmDoc(dstID string, nics, disks int) []byte {
	var statusNics, specNics, specDisks []map[string]any
	for i := 0; i < nics; i++ {
		ref := map[string]any{"kind": "subnet", "uuid": fmt.Sprintf("sub-dst-%d", i)}
		statusNics = append(statusNics, map[string]any{
			"nic_type":         "NORMAL_NIC",
			"subnet_reference": ref,
			"ip_endpoint_list": []any{map[string]any{"ip": fmt.Sprintf("10.0.%d.5", i), "type": "LEARNED"}},
		})
		specNics = append(specNics, map[string]any{
			"subnet_reference": ref,
			"ip_endpoint_list": []any{map[string]any{
				"ip":                   fmt.Sprintf("10.0.%d.5", i),
				"type":                 "ASSIGNED",
				"ip_type":              "DHCP",
				"gateway_address_list": []any{fmt.Sprintf("10.0.%d.1", i)},
				"prefix_length":        24,
			}},
		})
	}
	for i := 0; i < disks; i++ {
		specDisks = append(specDisks, map[string]any{
			"device_properties": map[string]any{
				"device_type":  "DISK",
				"disk_address": map[string]any{"adapter_type": "SCSI", "device_index": i},
			},
			"disk_size_mib":         10240 * (i + 1),
			"data_source_reference": map[string]any{"kind": "image", "uuid": fmt.Sprintf("img-dst-%d", i)},
		})
	}
	doc := map[string]any{
		"metadata": map[string]any{"uuid": dstID, "kind": "vm"},
		"status": map[string]any{
			"name":              "vm-" + dstID,
			"cluster_reference": map[string]any{"kind": "cluster", "uuid": destCluster},
			"resources":         map[string]any{"nic_list": statusNics},
		},
		"spec": map[string]any{
			"resources": map[string]any{"nic_list": specNics, "disk_list": specDisks},
		},
	}
	data, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return data
}

func destState(t *testing.T, dstID string, nics, disks int) *models.InstanceState {
	t.Helper()
	state, err := models.ParseInstanceState(vmDoc(dstID, nics, disks))
	require.NoError(t, err)
	return state
}

func mustNics(t *testing.T, raw string) []models.Nic {
	t.Helper()
	var nics []models.Nic
	require.NoError(t, json.Unmarshal([]byte(raw), &nics))
	return nics
}

func sourceNics(n int) string {
	out := "["
	for i := 0; i < n; i++ {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf(`{"nic_type":"NORMAL_NIC","mac_address":"50:6b:8d:00:00:0%d","subnet_reference":{"kind":"subnet","uuid":"sub-src-%d"},"ip_endpoint_list":[{"ip":"192.168.%d.9","ip_type":"STATIC","prefix_length":16}]}`, i, i, i)
	}
	return out + "]"
}

const blueprintIntentFixture = `{"name":"clone","resources":{"substrate_definition_list":[{"name":"vm","create_spec":{"resources":{"account_uuid":"acct-pe-src","nic_list":[{"subnet_reference":{"kind":"subnet","uuid":"sub-src-0"}},{"subnet_reference":{"kind":"subnet","uuid":"sub-src-1"}}],"memory_size_mib":4096}}}],"app_profile_list":[]}}`

const profileIntentFixture = `{"resources":{"patch_list":[{"uuid":"patch-x","attrs_list":[{"data":{"pre_defined_nic_list":[{"operation":"add","subnet_reference":{"uuid":"sub-src-0"}},{"operation":"modify","subnet_reference":{"uuid":"sub-src-1"}},{"operation":"modify","subnet_reference":{"uuid":"sub-src-2"}}]}}]}],"deployment_list":[]}}`

// seedInstance stores the full record graph of one migrated VM.
func seedInstance(t *testing.T, s *memStore, src string, nics, disks int) {
	t.Helper()
	srcDisks := make([]models.Disk, disks)
	for i := range srcDisks {
		size := int64(1024)
		srcDisks[i] = models.Disk{
			DeviceProperties:    json.RawMessage(`{"device_type":"DISK"}`),
			DiskSizeMib:         &size,
			DataSourceReference: &models.Reference{Kind: "image", UUID: "img-src"},
		}
	}
	s.put("element", "elem-"+src, models.Element{
		UUID:                "elem-" + src,
		Name:                "vm-" + src,
		InstanceID:          src,
		AccountUUID:         "acct-pe-src",
		ClusterUUID:         "cl-src",
		NicList:             mustNics(t, sourceNics(nics)),
		DiskList:            srcDisks,
		Categories:          `{"Team":"ops"}`,
		GroupUUID:           "grp-" + src,
		ProfileInstanceUUID: "pi-" + src,
	})

	var taskAttrs models.TaskAttrs
	require.NoError(t, json.Unmarshal([]byte(`{"type":"PROVISION_NUTANIX","resources":{"nic_list":`+sourceNics(nics)+`,"num_sockets":2}}`), &taskAttrs))
	s.put("group", "grp-"+src, models.Group{
		UUID:            "grp-" + src,
		Name:            "grp-" + src,
		Type:            GroupTypeAHV,
		AccountUUID:     "acct-pe-src",
		NicList:         mustNics(t, sourceNics(nics)),
		ConfigUUID:      "cfg-" + src,
		ApplicationUUID: "app-" + src,
		Actions: []models.Action{
			{Name: ActionCreate, Tasks: []models.Task{
				{UUID: "task-prov-" + src, Name: "provision", Type: TaskProvisionNutanix, Attrs: taskAttrs},
				{UUID: "task-exec-" + src, Name: "exec", Type: "EXEC"},
			}},
			{Name: "action_restart", Tasks: []models.Task{
				{UUID: "task-other-" + src, Name: "provision-other", Type: TaskProvisionNutanix, Attrs: taskAttrs},
			}},
		},
	})
	s.put("config", "cfg-"+src, models.Template{
		UUID:        "cfg-" + src,
		AccountUUID: "acct-pe-src",
		NicList:     mustNics(t, sourceNics(nics)),
	})
	s.put("blueprint", "bp-"+src, models.Blueprint{UUID: "bp-" + src, Name: "clone", IntentSpec: blueprintIntentFixture})
	s.put("profile_instance", "pi-"+src, models.ProfileInstance{
		UUID:            "pi-" + src,
		Name:            "Default",
		ApplicationUUID: "app-" + src,
		IntentSpec:      profileIntentFixture,
	})
	s.put("application", "app-"+src, models.Application{
		UUID:                      "app-" + src,
		Name:                      "app-" + src,
		State:                     "running",
		ProjectName:               "proj-src",
		BlueprintUUID:             "bp-" + src,
		ActiveProfileInstanceUUID: "pi-" + src,
	})
	s.put("patch", "patch-"+src, models.Patch{
		UUID:                "patch-" + src,
		Name:                "scale",
		ProfileInstanceUUID: "pi-" + src,
		AttrsList: []models.PatchAttrs{{Data: models.PatchData{PreDefinedNicList: []models.PatchNic{
			{Operation: models.PatchOperationAdd, SubnetReference: &models.Reference{UUID: "sub-src-0"}},
			{Operation: "modify", SubnetReference: &models.Reference{UUID: "sub-src-1"}},
			{Operation: "modify", SubnetReference: &models.Reference{UUID: "sub-src-2"}},
		}}}},
	})
}

// fakeFetcher serves destination states by id.
type fakeFetcher struct {
	states map[string]*models.InstanceState
	errs   map[string]error
	calls  []string
}

func (f *fakeFetcher) GetVM(_ context.Context, id string) (*models.InstanceState, error) {
	f.calls = append(f.calls, id)
	if err, ok := f.errs[id]; ok {
		return nil, err
	}
	if s, ok := f.states[id]; ok {
		return s, nil
	}
	return nil, errors.New("vm " + id + " not found")
}

// loadAs decodes the committed bytes of a record.
func loadAs[T any](t *testing.T, s *memStore, kind, uuid string) T {
	t.Helper()
	var v T
	raw := s.raw(kind, uuid)
	require.NotNil(t, raw, "%s %s not stored", kind, uuid)
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}
