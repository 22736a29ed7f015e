package migration

import (
	"fmt"

	"github.com/rflorenc/substrate-reconciler/internal/models"
)

// Group actions and task types touched by the rewrite.
const (
	ActionCreate         = "action_create"
	TaskProvisionNutanix = "PROVISION_NUTANIX"
)

// The functions below are pure: they take a record value and the
// destination state and return a rewritten copy without touching the input.

func rewriteNics(nics []models.Nic, state *models.InstanceState) ([]models.Nic, error) {
	if len(nics) > len(state.Nics) {
		return nil, fmt.Errorf("%w: %d on record, %d on destination", ErrNicCountMismatch, len(nics), len(state.Nics))
	}
	if nics == nil {
		return nil, nil
	}
	out := make([]models.Nic, len(nics))
	for i, n := range nics {
		out[i] = applyNic(n, state.Nics[i])
	}
	return out, nil
}

func rewriteDisks(disks []models.Disk, state *models.InstanceState) ([]models.Disk, error) {
	if len(disks) > len(state.Disks) {
		return nil, fmt.Errorf("%w: %d on record, %d on destination", ErrDiskCountMismatch, len(disks), len(state.Disks))
	}
	if disks == nil {
		return nil, nil
	}
	out := make([]models.Disk, len(disks))
	for i, d := range disks {
		out[i] = applyDisk(d, state.Disks[i])
	}
	return out, nil
}

// growDisks appends one disk per destination disk beyond len(disks), each
// cloned from disks[0] (or an empty disk) and carrying the destination
// disk's properties.
func growDisks(disks []models.Disk, state *models.InstanceState) []models.Disk {
	if len(disks) >= len(state.Disks) {
		return disks
	}
	var pattern models.Disk
	if len(disks) > 0 {
		pattern = disks[0]
	}
	out := make([]models.Disk, len(disks), len(state.Disks))
	copy(out, disks)
	for _, dst := range state.Disks[len(disks):] {
		out = append(out, applyDisk(pattern, dst))
	}
	return out
}

func rewriteElement(e models.Element, destID, accountUUID string, state *models.InstanceState) (models.Element, error) {
	nics, err := rewriteNics(e.NicList, state)
	if err != nil {
		return e, fmt.Errorf("element nics: %w", err)
	}
	disks, err := rewriteDisks(e.DiskList, state)
	if err != nil {
		return e, fmt.Errorf("element disks: %w", err)
	}
	e.InstanceID = destID
	e.AccountUUID = accountUUID
	e.ClusterUUID = state.ClusterUUID
	e.PlatformData = string(state.Raw)
	e.NicList = nics
	e.DiskList = disks
	return e, nil
}

func rewriteGroup(g models.Group, accountUUID string, state *models.InstanceState) (models.Group, error) {
	nics, err := rewriteNics(g.NicList, state)
	if err != nil {
		return g, fmt.Errorf("group nics: %w", err)
	}
	actions, err := rewriteProvisionTasks(g.Actions, state)
	if err != nil {
		return g, err
	}
	g.AccountUUID = accountUUID
	g.NicList = nics
	g.Actions = actions
	return g, nil
}

// rewriteProvisionTasks points the NICs of every provisioning task in the
// create action at the destination subnets, by index.
func rewriteProvisionTasks(actions []models.Action, state *models.InstanceState) ([]models.Action, error) {
	if actions == nil {
		return nil, nil
	}
	out := make([]models.Action, len(actions))
	for ai, action := range actions {
		out[ai] = action
		if action.Name != ActionCreate {
			continue
		}
		tasks := make([]models.Task, len(action.Tasks))
		for ti, task := range action.Tasks {
			tasks[ti] = task
			if task.Type != TaskProvisionNutanix {
				continue
			}
			nics := task.Attrs.Resources.NicList
			if len(nics) > len(state.Nics) {
				return nil, fmt.Errorf("task %s: %w: %d on task, %d on destination", task.Name, ErrNicCountMismatch, len(nics), len(state.Nics))
			}
			rewritten := make([]models.Nic, len(nics))
			for i, n := range nics {
				n.SubnetReference = withSubnetUUID(n.SubnetReference, state.SubnetUUID(i))
				rewritten[i] = n
			}
			tasks[ti].Attrs.Resources.NicList = rewritten
		}
		out[ai].Tasks = tasks
	}
	return out, nil
}

func rewriteTemplate(t models.Template, accountUUID string, state *models.InstanceState) (models.Template, error) {
	nics, err := rewriteNics(t.NicList, state)
	if err != nil {
		return t, fmt.Errorf("template nics: %w", err)
	}
	disks, err := rewriteDisks(t.DiskList, state)
	if err != nil {
		return t, fmt.Errorf("template disks: %w", err)
	}
	t.AccountUUID = accountUUID
	t.NicList = nics
	t.DiskList = growDisks(disks, state)
	return t, nil
}

// rewriteBlueprintIntent rewrites every substrate definition's create spec
// NIC subnets and account in a serialised blueprint intent spec.
func rewriteBlueprintIntent(spec, accountUUID string, state *models.InstanceState) (string, error) {
	intent, err := models.ParseBlueprintIntent(spec)
	if err != nil {
		return "", err
	}
	for i := range intent.Resources.SubstrateDefinitionList {
		res := &intent.Resources.SubstrateDefinitionList[i].CreateSpec.Resources
		if len(res.NicList) > len(state.Nics) {
			return "", fmt.Errorf("blueprint substrate %d: %w: %d in spec, %d on destination", i, ErrNicCountMismatch, len(res.NicList), len(state.Nics))
		}
		for n := range res.NicList {
			res.NicList[n].SubnetReference = state.Nics[n].SubnetReference.Clone()
		}
		res.AccountUUID = accountUUID
	}
	return intent.Serialize()
}

func rewritePatchNics(nics []models.PatchNic, state *models.InstanceState) ([]models.PatchNic, error) {
	if len(nics) == 0 {
		return nics, nil
	}
	if len(state.Nics) == 0 {
		return nil, ErrNoDestinationNics
	}
	out := make([]models.PatchNic, len(nics))
	for i, n := range nics {
		n.SubnetReference = withSubnetUUID(n.SubnetReference, patchSubnet(i, n.Operation, state))
		out[i] = n
	}
	return out, nil
}

// rewritePatch rewrites the pre-defined NIC list of the patch's first attrs
// entry, the only one NIC patches carry.
func rewritePatch(p models.Patch, state *models.InstanceState) (models.Patch, error) {
	if len(p.AttrsList) == 0 {
		return p, nil
	}
	nics, err := rewritePatchNics(p.AttrsList[0].Data.PreDefinedNicList, state)
	if err != nil {
		return p, fmt.Errorf("patch %s: %w", p.UUID, err)
	}
	attrs := make([]models.PatchAttrs, len(p.AttrsList))
	copy(attrs, p.AttrsList)
	attrs[0].Data.PreDefinedNicList = nics
	p.AttrsList = attrs
	return p, nil
}

// rewriteProfileIntent applies the patch rule to the patch list embedded in
// a serialised profile instance intent spec.
func rewriteProfileIntent(spec string, state *models.InstanceState) (string, error) {
	intent, err := models.ParseProfileIntent(spec)
	if err != nil {
		return "", err
	}
	for i := range intent.Resources.PatchList {
		attrs := intent.Resources.PatchList[i].AttrsList
		if len(attrs) == 0 {
			continue
		}
		nics, err := rewritePatchNics(attrs[0].Data.PreDefinedNicList, state)
		if err != nil {
			return "", fmt.Errorf("profile patch %d: %w", i, err)
		}
		attrs[0].Data.PreDefinedNicList = nics
	}
	return intent.Serialize()
}
