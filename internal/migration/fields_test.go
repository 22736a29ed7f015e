package migration

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rflorenc/substrate-reconciler/internal/models"
)

func TestPatchSubnet(t *testing.T) {
	state := &models.InstanceState{Nics: []models.InstanceNic{
		{SubnetReference: &models.Reference{UUID: "s0"}},
		{SubnetReference: &models.Reference{UUID: "s1"}},
	}}
	tests := []struct {
		name string
		i    int
		op   string
		want string
	}{
		{"add always takes first nic", 1, models.PatchOperationAdd, "s0"},
		{"same index", 1, "modify", "s1"},
		{"index zero", 0, "modify", "s0"},
		{"beyond destination falls back to first", 2, "modify", "s0"},
		{"far beyond", 9, "delete", "s0"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, patchSubnet(tc.i, tc.op, state))
		})
	}
}

func TestApplyDisk(t *testing.T) {
	srcSize := int64(100)
	dstSize := int64(200)
	src := models.Disk{
		DeviceProperties:    json.RawMessage(`{"device_type":"CDROM"}`),
		DiskSizeMib:         &srcSize,
		DataSourceReference: &models.Reference{UUID: "img-src"},
		Extra:               map[string]json.RawMessage{"uuid": json.RawMessage(`"disk-1"`)},
	}

	t.Run("destination with size and source", func(t *testing.T) {
		dst := models.Disk{
			DeviceProperties:    json.RawMessage(`{"device_type":"DISK"}`),
			DiskSizeMib:         &dstSize,
			DataSourceReference: &models.Reference{UUID: "img-dst"},
		}
		got := applyDisk(src, dst)
		assert.JSONEq(t, `{"device_type":"DISK"}`, string(got.DeviceProperties))
		assert.Equal(t, int64(200), *got.DiskSizeMib)
		assert.Equal(t, "img-dst", got.DataSourceReference.UUID)
		assert.Equal(t, src.Extra, got.Extra)
		assert.Equal(t, int64(100), *src.DiskSizeMib, "input must not change")
	})

	t.Run("destination without size or source", func(t *testing.T) {
		dst := models.Disk{DeviceProperties: json.RawMessage(`{"device_type":"DISK"}`)}
		got := applyDisk(src, dst)
		assert.Equal(t, int64(100), *got.DiskSizeMib, "size kept when destination has none")
		assert.Nil(t, got.DataSourceReference, "stale data source reference must be cleared")
	})
}

func TestWithSubnetUUID(t *testing.T) {
	ref := &models.Reference{Kind: "subnet", Name: "vlan0", UUID: "old"}
	got := withSubnetUUID(ref, "new")
	assert.Equal(t, &models.Reference{Kind: "subnet", Name: "vlan0", UUID: "new"}, got)
	assert.Equal(t, "old", ref.UUID)

	assert.Equal(t, &models.Reference{Kind: "subnet", UUID: "x"}, withSubnetUUID(nil, "x"))
}

func TestStripEndpoints(t *testing.T) {
	eps := []models.IPEndpoint{
		{"ip": raw(`"10.0.0.1"`), "ip_type": raw(`"DHCP"`), "gateway_address_list": raw(`["10.0.0.254"]`), "prefix_length": raw(`24`)},
		{"ip": raw(`"10.0.0.2"`), "type": raw(`"ASSIGNED"`)},
	}
	got := stripEndpoints(eps)
	assert.Equal(t, []models.IPEndpoint{{"ip": raw(`"10.0.0.1"`)}, {"ip": raw(`"10.0.0.2"`), "type": raw(`"ASSIGNED"`)}}, got)
	assert.Contains(t, eps[0], "ip_type", "input must not change")
	assert.Nil(t, stripEndpoints(nil))
}

func raw(s string) json.RawMessage { return json.RawMessage(s) }
