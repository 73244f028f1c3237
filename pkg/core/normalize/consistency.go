package normalize

import (
	"strings"
	"sync"
)

// ConsistencyMap keeps label→canonical decisions stable across a batch of
// filings: the first filing to resolve a label decides it for the rest.
// Safe for concurrent use; batch processing shares one map across workers.
type ConsistencyMap struct {
	mu      sync.RWMutex
	byLabel map[string]string
}

func NewConsistencyMap() *ConsistencyMap {
	return &ConsistencyMap{byLabel: map[string]string{}}
}

// Observe records the resolved labels of one filing. Existing decisions are
// never overwritten.
func (cm *ConsistencyMap) Observe(normalized [][]string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	for _, row := range normalized {
		if len(row) < 2 {
			continue
		}
		label := strings.ToLower(strings.TrimSpace(row[0]))
		canonical := strings.TrimSpace(row[1])
		if label == "" || canonical == "" {
			continue
		}
		if _, ok := cm.byLabel[label]; !ok {
			cm.byLabel[label] = canonical
		}
	}
}

// Apply fills empty canonical cells from earlier filings' decisions.
func (cm *ConsistencyMap) Apply(normalized [][]string) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	for _, row := range normalized {
		if len(row) < 2 || strings.TrimSpace(row[1]) != "" {
			continue
		}
		label := strings.ToLower(strings.TrimSpace(row[0]))
		if canonical, ok := cm.byLabel[label]; ok {
			row[1] = canonical
		}
	}
}

// Mappings returns a copy of the accumulated decisions.
func (cm *ConsistencyMap) Mappings() map[string]string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	out := make(map[string]string, len(cm.byLabel))
	for k, v := range cm.byLabel {
		out[k] = v
	}
	return out
}
