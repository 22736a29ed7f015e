package migration

import (
	"fmt"

	"github.com/rflorenc/substrate-reconciler/internal/models"
)

// BuildAccountMap picks the management-plane account whose server is
// destServer and maps each of its clusters to the cluster account uuid.
func BuildAccountMap(accounts []models.Account, destServer string) (map[string]string, error) {
	for _, acct := range accounts {
		if acct.Server != destServer {
			continue
		}
		m := make(map[string]string, len(acct.Clusters))
		for _, c := range acct.Clusters {
			m[c.ClusterUUID] = c.UUID
		}
		return m, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrDestinationAccountNotFound, destServer)
}
