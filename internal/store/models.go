package store

// Record rows keep the queried attributes as columns and the full record
// document in data.

type pcAccountModel struct {
	UUID    string `gorm:"column:uuid;primaryKey"`
	Name    string `gorm:"column:name"`
	Server  string `gorm:"column:server"`
	Deleted bool   `gorm:"column:deleted"`
}

func (pcAccountModel) TableName() string { return "pc_accounts" }

type peAccountModel struct {
	UUID          string `gorm:"column:uuid;primaryKey"`
	PCAccountUUID string `gorm:"column:pc_account_uuid"`
	ClusterUUID   string `gorm:"column:cluster_uuid"`
	Deleted       bool   `gorm:"column:deleted"`
}

func (peAccountModel) TableName() string { return "pe_accounts" }

type applicationModel struct {
	UUID        string `gorm:"column:uuid;primaryKey"`
	Name        string `gorm:"column:name"`
	State       string `gorm:"column:state"`
	ProjectName string `gorm:"column:project_name"`
	Deleted     bool   `gorm:"column:deleted"`
	Data        string `gorm:"column:data;type:jsonb"`
}

func (applicationModel) TableName() string { return "applications" }

type blueprintModel struct {
	UUID    string `gorm:"column:uuid;primaryKey"`
	Deleted bool   `gorm:"column:deleted"`
	Data    string `gorm:"column:data;type:jsonb"`
}

func (blueprintModel) TableName() string { return "app_blueprint_configs" }

type profileInstanceModel struct {
	UUID            string `gorm:"column:uuid;primaryKey"`
	ApplicationUUID string `gorm:"column:application_uuid"`
	Deleted         bool   `gorm:"column:deleted"`
	Data            string `gorm:"column:data;type:jsonb"`
}

func (profileInstanceModel) TableName() string { return "app_profile_instances" }

type patchModel struct {
	UUID                string `gorm:"column:uuid;primaryKey"`
	ProfileInstanceUUID string `gorm:"column:app_profile_instance_uuid"`
	Deleted             bool   `gorm:"column:deleted"`
	Data                string `gorm:"column:data;type:jsonb"`
}

func (patchModel) TableName() string { return "app_patches" }

type configModel struct {
	UUID    string `gorm:"column:uuid;primaryKey"`
	Deleted bool   `gorm:"column:deleted"`
	Data    string `gorm:"column:data;type:jsonb"`
}

func (configModel) TableName() string { return "substrate_configs" }

type groupModel struct {
	UUID    string `gorm:"column:uuid;primaryKey"`
	Type    string `gorm:"column:type"`
	Deleted bool   `gorm:"column:deleted"`
	Data    string `gorm:"column:data;type:jsonb"`
}

func (groupModel) TableName() string { return "substrates" }

type elementModel struct {
	UUID                string `gorm:"column:uuid;primaryKey"`
	InstanceID          string `gorm:"column:instance_id"`
	GroupUUID           string `gorm:"column:replica_group_uuid"`
	ProfileInstanceUUID string `gorm:"column:app_profile_instance_uuid"`
	Deleted             bool   `gorm:"column:deleted"`
	Data                string `gorm:"column:data;type:jsonb"`
}

func (elementModel) TableName() string { return "substrate_elements" }
