package models

import (
	"encoding/json"
	"fmt"
)

// BlueprintIntent is the subset of a clone blueprint's intent spec the
// reconciler rewrites. Everything else round-trips through Extra.
type BlueprintIntent struct {
	Resources BlueprintResources `json:"resources"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (b *BlueprintIntent) UnmarshalJSON(data []byte) error {
	type plain BlueprintIntent
	var p plain
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	*b = BlueprintIntent(p)
	b.Extra = extra
	return nil
}

func (b BlueprintIntent) MarshalJSON() ([]byte, error) {
	type plain BlueprintIntent
	return encodeWithExtra(plain(b), b.Extra)
}

type BlueprintResources struct {
	SubstrateDefinitionList []SubstrateDefinition `json:"substrate_definition_list"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (r *BlueprintResources) UnmarshalJSON(data []byte) error {
	type plain BlueprintResources
	var p plain
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	*r = BlueprintResources(p)
	r.Extra = extra
	return nil
}

func (r BlueprintResources) MarshalJSON() ([]byte, error) {
	type plain BlueprintResources
	return encodeWithExtra(plain(r), r.Extra)
}

// SubstrateDefinition is one group definition inside a blueprint.
type SubstrateDefinition struct {
	CreateSpec CreateSpec `json:"create_spec"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (s *SubstrateDefinition) UnmarshalJSON(data []byte) error {
	type plain SubstrateDefinition
	var p plain
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	*s = SubstrateDefinition(p)
	s.Extra = extra
	return nil
}

func (s SubstrateDefinition) MarshalJSON() ([]byte, error) {
	type plain SubstrateDefinition
	return encodeWithExtra(plain(s), s.Extra)
}

type CreateSpec struct {
	Resources CreateSpecResources `json:"resources"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (c *CreateSpec) UnmarshalJSON(data []byte) error {
	type plain CreateSpec
	var p plain
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	*c = CreateSpec(p)
	c.Extra = extra
	return nil
}

func (c CreateSpec) MarshalJSON() ([]byte, error) {
	type plain CreateSpec
	return encodeWithExtra(plain(c), c.Extra)
}

type CreateSpecResources struct {
	AccountUUID string `json:"account_uuid,omitempty"`
	NicList     []Nic  `json:"nic_list"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (r *CreateSpecResources) UnmarshalJSON(data []byte) error {
	type plain CreateSpecResources
	var p plain
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	*r = CreateSpecResources(p)
	r.Extra = extra
	return nil
}

func (r CreateSpecResources) MarshalJSON() ([]byte, error) {
	type plain CreateSpecResources
	data, err := encodeWithExtra(plain(r), r.Extra)
	if err != nil || r.NicList != nil {
		return data, err
	}
	return dropKeys(data, "nic_list")
}

// ProfileIntent is the subset of an active profile instance's intent spec
// holding its embedded patch list.
type ProfileIntent struct {
	Resources ProfileResources `json:"resources"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (p *ProfileIntent) UnmarshalJSON(data []byte) error {
	type plain ProfileIntent
	var v plain
	extra, err := decodeWithExtra(data, &v)
	if err != nil {
		return err
	}
	*p = ProfileIntent(v)
	p.Extra = extra
	return nil
}

func (p ProfileIntent) MarshalJSON() ([]byte, error) {
	type plain ProfileIntent
	return encodeWithExtra(plain(p), p.Extra)
}

type ProfileResources struct {
	PatchList []PatchSpec `json:"patch_list"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (r *ProfileResources) UnmarshalJSON(data []byte) error {
	type plain ProfileResources
	var p plain
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	*r = ProfileResources(p)
	r.Extra = extra
	return nil
}

func (r ProfileResources) MarshalJSON() ([]byte, error) {
	type plain ProfileResources
	return encodeWithExtra(plain(r), r.Extra)
}

// PatchSpec is a patch as embedded in a profile intent spec.
type PatchSpec struct {
	AttrsList []PatchAttrs `json:"attrs_list"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (s *PatchSpec) UnmarshalJSON(data []byte) error {
	type plain PatchSpec
	var p plain
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	*s = PatchSpec(p)
	s.Extra = extra
	return nil
}

func (s PatchSpec) MarshalJSON() ([]byte, error) {
	type plain PatchSpec
	return encodeWithExtra(plain(s), s.Extra)
}

type PatchAttrs struct {
	Data PatchData `json:"data"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (a *PatchAttrs) UnmarshalJSON(data []byte) error {
	type plain PatchAttrs
	var p plain
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	*a = PatchAttrs(p)
	a.Extra = extra
	return nil
}

func (a PatchAttrs) MarshalJSON() ([]byte, error) {
	type plain PatchAttrs
	return encodeWithExtra(plain(a), a.Extra)
}

type PatchData struct {
	PreDefinedNicList []PatchNic `json:"pre_defined_nic_list"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (d *PatchData) UnmarshalJSON(data []byte) error {
	type plain PatchData
	var p plain
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	*d = PatchData(p)
	d.Extra = extra
	return nil
}

func (d PatchData) MarshalJSON() ([]byte, error) {
	type plain PatchData
	return encodeWithExtra(plain(d), d.Extra)
}

// PatchOperationAdd marks a pre-defined NIC patch that adds an interface.
const PatchOperationAdd = "add"

// PatchNic is one pre-defined NIC patch operation.
type PatchNic struct {
	Operation       string     `json:"operation"`
	SubnetReference *Reference `json:"subnet_reference"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (n *PatchNic) UnmarshalJSON(data []byte) error {
	type plain PatchNic
	var p plain
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	*n = PatchNic(p)
	n.Extra = extra
	return nil
}

func (n PatchNic) MarshalJSON() ([]byte, error) {
	type plain PatchNic
	return encodeWithExtra(plain(n), n.Extra)
}

// ParseBlueprintIntent decodes a blueprint intent spec.
func ParseBlueprintIntent(spec string) (*BlueprintIntent, error) {
	var intent BlueprintIntent
	if err := json.Unmarshal([]byte(spec), &intent); err != nil {
		return nil, fmt.Errorf("parsing blueprint intent spec: %w", err)
	}
	return &intent, nil
}

// ParseProfileIntent decodes a profile instance intent spec.
func ParseProfileIntent(spec string) (*ProfileIntent, error) {
	var intent ProfileIntent
	if err := json.Unmarshal([]byte(spec), &intent); err != nil {
		return nil, fmt.Errorf("parsing profile intent spec: %w", err)
	}
	return &intent, nil
}

// Serialize encodes the intent spec back to its stored string form.
func (b *BlueprintIntent) Serialize() (string, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("serializing blueprint intent spec: %w", err)
	}
	return string(data), nil
}

// Serialize encodes the intent spec back to its stored string form.
func (p *ProfileIntent) Serialize() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("serializing profile intent spec: %w", err)
	}
	return string(data), nil
}
