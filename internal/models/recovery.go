package models

// Recovery plan job action types and states the identity resolver accepts.
const (
	ActionTypeMigrate  = "MIGRATE"
	ActionTypeFailover = "FAILOVER"

	JobStatusCompleted            = "COMPLETED"
	JobStatusCompletedWithWarning = "COMPLETED_WITH_WARNING"

	OperationTypeEntityRecovery = "ENTITY_RECOVERY"
)

// RecoveryPlanJob is one entity of the recovery plan job listing.
type RecoveryPlanJob struct {
	Metadata struct {
		UUID string `json:"uuid"`
	} `json:"metadata"`
	Status struct {
		Resources struct {
			ExecutionParameters struct {
				ActionType string `json:"action_type"`
			} `json:"execution_parameters"`
		} `json:"resources"`
		ExecutionStatus struct {
			Status string `json:"status"`
		} `json:"execution_status"`
	} `json:"status"`
}

// UUID returns the job's uuid.
func (j RecoveryPlanJob) UUID() string { return j.Metadata.UUID }

// IsCompletedMigration reports whether the job is a finished migrate or
// failover whose recovered entities can be trusted.
func (j RecoveryPlanJob) IsCompletedMigration() bool {
	switch j.Status.Resources.ExecutionParameters.ActionType {
	case ActionTypeMigrate, ActionTypeFailover:
	default:
		return false
	}
	switch j.Status.ExecutionStatus.Status {
	case JobStatusCompleted, JobStatusCompletedWithWarning:
		return true
	}
	return false
}

// RecoveryPlanJobList is the response of POST /recovery_plan_jobs/list.
type RecoveryPlanJobList struct {
	Entities []RecoveryPlanJob `json:"entities"`
	Metadata struct {
		TotalMatches int `json:"total_matches"`
	} `json:"metadata"`
}

// JobExecutionStatus is the response of
// GET /recovery_plan_jobs/{uuid}/execution_status.
type JobExecutionStatus struct {
	OperationStatus struct {
		StepExecutionStatusList []StepExecutionStatus `json:"step_execution_status_list"`
	} `json:"operation_status"`
}

// StepExecutionStatus is one step of a job execution.
type StepExecutionStatus struct {
	StepUUID                string                `json:"step_uuid"`
	OperationType           string                `json:"operation_type"`
	AnyEntityReferenceList  []Reference           `json:"any_entity_reference_list"`
	RecoveredEntityInfoList []RecoveredEntityInfo `json:"recovered_entity_info_list"`
}

type RecoveredEntityInfo struct {
	RecoveredEntityInfo struct {
		EntityUUID string `json:"entity_uuid"`
	} `json:"recovered_entity_info"`
}

// IdentityPair extracts the source/destination pair of an entity recovery
// step. ok is false when the step is not a recovery or lacks either id.
func (s StepExecutionStatus) IdentityPair() (pair IdentityPair, ok bool) {
	if s.OperationType != OperationTypeEntityRecovery {
		return pair, false
	}
	if len(s.AnyEntityReferenceList) == 0 || len(s.RecoveredEntityInfoList) == 0 {
		return pair, false
	}
	pair.SourceID = s.AnyEntityReferenceList[0].UUID
	pair.DestID = s.RecoveredEntityInfoList[0].RecoveredEntityInfo.EntityUUID
	return pair, pair.SourceID != "" && pair.DestID != ""
}
