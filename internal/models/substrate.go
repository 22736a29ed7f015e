package models

import (
	"encoding/json"
	"maps"
)

// Reference points at another platform entity (subnet, cluster, image...).
type Reference struct {
	Kind string `json:"kind,omitempty"`
	Name string `json:"name,omitempty"`
	UUID string `json:"uuid"`
}

// Clone returns a copy of r, or nil when r is nil.
func (r *Reference) Clone() *Reference {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// Fields the destination plane computes for an IP endpoint. They must not be
// carried over from a spec or the platform refuses to recompute them.
var computedEndpointFields = []string{"ip_type", "gateway_address_list", "prefix_length"}

// IPEndpoint is one entry of a NIC's ip_endpoint_list. Values stay raw so
// kept keys are written back byte for byte.
type IPEndpoint map[string]json.RawMessage

// Str returns the string value of key k, or "" when absent or not a string.
func (e IPEndpoint) Str(k string) string {
	var s string
	if raw, ok := e[k]; ok {
		_ = json.Unmarshal(raw, &s)
	}
	return s
}

// Stripped returns a copy of e without the destination-computed fields.
func (e IPEndpoint) Stripped() IPEndpoint {
	out := maps.Clone(e)
	if out == nil {
		out = IPEndpoint{}
	}
	for _, k := range computedEndpointFields {
		delete(out, k)
	}
	return out
}

// Nic is a network interface as stored on substrate records and in create
// specs.
type Nic struct {
	NicType         string       `json:"nic_type,omitempty"`
	SubnetReference *Reference   `json:"subnet_reference,omitempty"`
	IPEndpointList  []IPEndpoint `json:"ip_endpoint_list,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (n *Nic) UnmarshalJSON(data []byte) error {
	type plain Nic
	var p plain
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	*n = Nic(p)
	n.Extra = extra
	return nil
}

func (n Nic) MarshalJSON() ([]byte, error) {
	type plain Nic
	return encodeWithExtra(plain(n), n.Extra)
}

// Disk is a disk entry on a substrate record.
type Disk struct {
	DeviceProperties    json.RawMessage `json:"device_properties,omitempty"`
	DiskSizeMib         *int64          `json:"disk_size_mib,omitempty"`
	DataSourceReference *Reference      `json:"data_source_reference,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (d *Disk) UnmarshalJSON(data []byte) error {
	type plain Disk
	var p plain
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	*d = Disk(p)
	d.Extra = extra
	return nil
}

func (d Disk) MarshalJSON() ([]byte, error) {
	type plain Disk
	return encodeWithExtra(plain(d), d.Extra)
}

// Clone returns a deep copy of the fields a rewrite may replace.
func (d Disk) Clone() Disk {
	c := d
	if d.DeviceProperties != nil {
		c.DeviceProperties = append(json.RawMessage(nil), d.DeviceProperties...)
	}
	if d.DiskSizeMib != nil {
		size := *d.DiskSizeMib
		c.DiskSizeMib = &size
	}
	c.DataSourceReference = d.DataSourceReference.Clone()
	c.Extra = maps.Clone(d.Extra)
	return c
}

// Element is the substrate element bound to one running VM.
type Element struct {
	UUID                string `json:"uuid"`
	Name                string `json:"name"`
	InstanceID          string `json:"instance_id"`
	AccountUUID         string `json:"account_uuid"`
	ClusterUUID         string `json:"cluster_uuid"`
	NicList             []Nic  `json:"nic_list"`
	DiskList            []Disk `json:"disk_list"`
	Categories          string `json:"categories,omitempty"`
	PlatformData        string `json:"platform_data,omitempty"`
	GroupUUID           string `json:"replica_group_uuid"`
	ProfileInstanceUUID string `json:"app_profile_instance_uuid"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (e *Element) UnmarshalJSON(data []byte) error {
	type plain Element
	var p plain
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	*e = Element(p)
	e.Extra = extra
	return nil
}

func (e Element) MarshalJSON() ([]byte, error) {
	type plain Element
	return encodeWithExtra(plain(e), e.Extra)
}

// Group (the replica group) is the substrate definition shared by a set of
// identical elements.
type Group struct {
	UUID            string   `json:"uuid"`
	Name            string   `json:"name"`
	Type            string   `json:"type"`
	AccountUUID     string   `json:"account_uuid"`
	NicList         []Nic    `json:"nic_list"`
	ConfigUUID      string   `json:"config_uuid"`
	ApplicationUUID string   `json:"application_uuid"`
	Actions         []Action `json:"actions"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (g *Group) UnmarshalJSON(data []byte) error {
	type plain Group
	var p plain
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	*g = Group(p)
	g.Extra = extra
	return nil
}

func (g Group) MarshalJSON() ([]byte, error) {
	type plain Group
	return encodeWithExtra(plain(g), g.Extra)
}

// Action is a lifecycle action on a Group with its ordered runbook tasks.
type Action struct {
	Name  string `json:"name"`
	Tasks []Task `json:"tasks"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (a *Action) UnmarshalJSON(data []byte) error {
	type plain Action
	var p plain
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	*a = Action(p)
	a.Extra = extra
	return nil
}

func (a Action) MarshalJSON() ([]byte, error) {
	type plain Action
	return encodeWithExtra(plain(a), a.Extra)
}

// Task is one runbook task. Provisioning tasks embed a NIC list whose subnet
// references must follow the destination.
type Task struct {
	UUID  string    `json:"uuid"`
	Name  string    `json:"name"`
	Type  string    `json:"type"`
	Attrs TaskAttrs `json:"attrs"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (t *Task) UnmarshalJSON(data []byte) error {
	type plain Task
	var p plain
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	*t = Task(p)
	t.Extra = extra
	return nil
}

func (t Task) MarshalJSON() ([]byte, error) {
	type plain Task
	return encodeWithExtra(plain(t), t.Extra)
}

type TaskAttrs struct {
	Resources TaskResources `json:"resources"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (a *TaskAttrs) UnmarshalJSON(data []byte) error {
	type plain TaskAttrs
	var p plain
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	*a = TaskAttrs(p)
	a.Extra = extra
	return nil
}

func (a TaskAttrs) MarshalJSON() ([]byte, error) {
	type plain TaskAttrs
	return encodeWithExtra(plain(a), a.Extra)
}

type TaskResources struct {
	NicList []Nic `json:"nic_list"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (r *TaskResources) UnmarshalJSON(data []byte) error {
	type plain TaskResources
	var p plain
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	*r = TaskResources(p)
	r.Extra = extra
	return nil
}

func (r TaskResources) MarshalJSON() ([]byte, error) {
	type plain TaskResources
	data, err := encodeWithExtra(plain(r), r.Extra)
	if err != nil || r.NicList != nil {
		return data, err
	}
	// an absent list stays absent, an empty one stays []
	return dropKeys(data, "nic_list")
}

// Template is the substrate config a Group is instantiated from.
type Template struct {
	UUID        string `json:"uuid"`
	AccountUUID string `json:"account_uuid"`
	NicList     []Nic  `json:"nic_list"`
	DiskList    []Disk `json:"disk_list"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (t *Template) UnmarshalJSON(data []byte) error {
	type plain Template
	var p plain
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	*t = Template(p)
	t.Extra = extra
	return nil
}

func (t Template) MarshalJSON() ([]byte, error) {
	type plain Template
	return encodeWithExtra(plain(t), t.Extra)
}

// Blueprint is the clone blueprint attached to an Application. IntentSpec
// holds the serialised BlueprintIntent.
type Blueprint struct {
	UUID       string `json:"uuid"`
	Name       string `json:"name"`
	IntentSpec string `json:"intent_spec"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (b *Blueprint) UnmarshalJSON(data []byte) error {
	type plain Blueprint
	var p plain
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	*b = Blueprint(p)
	b.Extra = extra
	return nil
}

func (b Blueprint) MarshalJSON() ([]byte, error) {
	type plain Blueprint
	return encodeWithExtra(plain(b), b.Extra)
}

// ProfileInstance is an application's profile instance. IntentSpec holds the
// serialised ProfileIntent.
type ProfileInstance struct {
	UUID            string `json:"uuid"`
	Name            string `json:"name"`
	ApplicationUUID string `json:"application_uuid"`
	IntentSpec      string `json:"intent_spec"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (pi *ProfileInstance) UnmarshalJSON(data []byte) error {
	type plain ProfileInstance
	var p plain
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	*pi = ProfileInstance(p)
	pi.Extra = extra
	return nil
}

func (pi ProfileInstance) MarshalJSON() ([]byte, error) {
	type plain ProfileInstance
	return encodeWithExtra(plain(pi), pi.Extra)
}

// Patch is a patch config on an active profile instance.
type Patch struct {
	UUID                string       `json:"uuid"`
	Name                string       `json:"name"`
	ProfileInstanceUUID string       `json:"app_profile_instance_uuid"`
	AttrsList           []PatchAttrs `json:"attrs_list"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (pt *Patch) UnmarshalJSON(data []byte) error {
	type plain Patch
	var p plain
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	*pt = Patch(p)
	pt.Extra = extra
	return nil
}

func (pt Patch) MarshalJSON() ([]byte, error) {
	type plain Patch
	return encodeWithExtra(plain(pt), pt.Extra)
}

// Application owns the blueprint and the active profile instance.
type Application struct {
	UUID                      string `json:"uuid"`
	Name                      string `json:"name"`
	State                     string `json:"state"`
	ProjectName               string `json:"project_name"`
	BlueprintUUID             string `json:"app_blueprint_config_uuid"`
	ActiveProfileInstanceUUID string `json:"active_app_profile_instance_uuid"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (a *Application) UnmarshalJSON(data []byte) error {
	type plain Application
	var p plain
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	*a = Application(p)
	a.Extra = extra
	return nil
}

func (a Application) MarshalJSON() ([]byte, error) {
	type plain Application
	return encodeWithExtra(plain(a), a.Extra)
}

// ApplicationStateDeleted marks applications the reconciler ignores.
const ApplicationStateDeleted = "deleted"

// Account is a management-plane (PC) account and the cluster accounts under
// it.
type Account struct {
	UUID     string           `json:"uuid"`
	Name     string           `json:"name"`
	Server   string           `json:"server"`
	Clusters []ClusterAccount `json:"clusters"`
}

// ClusterAccount binds one cluster to the account uuid records must carry.
type ClusterAccount struct {
	UUID        string `json:"uuid"`
	ClusterUUID string `json:"cluster_uuid"`
}
