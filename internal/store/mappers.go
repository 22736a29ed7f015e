package store

import (
	"encoding/json"
	"fmt"

	"github.com/rflorenc/substrate-reconciler/internal/models"
)

func decodeDoc(uuid, data string, v any) error {
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("decoding record %s: %w", uuid, err)
	}
	return nil
}

func encodeDoc(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func toDomainElement(m elementModel) (*models.Element, error) {
	var e models.Element
	if err := decodeDoc(m.UUID, m.Data, &e); err != nil {
		return nil, err
	}
	e.UUID, e.InstanceID = m.UUID, m.InstanceID
	e.GroupUUID, e.ProfileInstanceUUID = m.GroupUUID, m.ProfileInstanceUUID
	return &e, nil
}

func toDomainGroup(m groupModel) (*models.Group, error) {
	var g models.Group
	if err := decodeDoc(m.UUID, m.Data, &g); err != nil {
		return nil, err
	}
	g.UUID, g.Type = m.UUID, m.Type
	return &g, nil
}

func toDomainTemplate(m configModel) (*models.Template, error) {
	var t models.Template
	if err := decodeDoc(m.UUID, m.Data, &t); err != nil {
		return nil, err
	}
	t.UUID = m.UUID
	return &t, nil
}

func toDomainBlueprint(m blueprintModel) (*models.Blueprint, error) {
	var b models.Blueprint
	if err := decodeDoc(m.UUID, m.Data, &b); err != nil {
		return nil, err
	}
	b.UUID = m.UUID
	return &b, nil
}

func toDomainProfileInstance(m profileInstanceModel) (*models.ProfileInstance, error) {
	var p models.ProfileInstance
	if err := decodeDoc(m.UUID, m.Data, &p); err != nil {
		return nil, err
	}
	p.UUID, p.ApplicationUUID = m.UUID, m.ApplicationUUID
	return &p, nil
}

func toDomainPatch(m patchModel) (*models.Patch, error) {
	var p models.Patch
	if err := decodeDoc(m.UUID, m.Data, &p); err != nil {
		return nil, err
	}
	p.UUID, p.ProfileInstanceUUID = m.UUID, m.ProfileInstanceUUID
	return &p, nil
}

func toDomainApplication(m applicationModel) (*models.Application, error) {
	var a models.Application
	if err := decodeDoc(m.UUID, m.Data, &a); err != nil {
		return nil, err
	}
	a.UUID, a.Name, a.State, a.ProjectName = m.UUID, m.Name, m.State, m.ProjectName
	return &a, nil
}

func toDomainAccounts(pcs []pcAccountModel, pes []peAccountModel) []models.Account {
	byPC := make(map[string][]models.ClusterAccount, len(pcs))
	for _, pe := range pes {
		byPC[pe.PCAccountUUID] = append(byPC[pe.PCAccountUUID], models.ClusterAccount{UUID: pe.UUID, ClusterUUID: pe.ClusterUUID})
	}
	out := make([]models.Account, 0, len(pcs))
	for _, pc := range pcs {
		out = append(out, models.Account{UUID: pc.UUID, Name: pc.Name, Server: pc.Server, Clusters: byPC[pc.UUID]})
	}
	return out
}

// Column updates per record kind. Indexed columns move with the document.

func elementUpdates(e *models.Element) (map[string]any, error) {
	doc, err := encodeDoc(e)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"instance_id":               e.InstanceID,
		"replica_group_uuid":        e.GroupUUID,
		"app_profile_instance_uuid": e.ProfileInstanceUUID,
		"data":                      doc,
	}, nil
}

func applicationUpdates(a *models.Application) (map[string]any, error) {
	doc, err := encodeDoc(a)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"name":         a.Name,
		"state":        a.State,
		"project_name": a.ProjectName,
		"data":         doc,
	}, nil
}

func documentUpdates(v any) (map[string]any, error) {
	doc, err := encodeDoc(v)
	if err != nil {
		return nil, err
	}
	return map[string]any{"data": doc}, nil
}
