package shared

import "fmt"

// DocumentLockKey builds redis keys guarding a single stored document.
func DocumentLockKey(prefix, id string) string {
	return fmt.Sprintf("%s:%s:lock", prefix, id)
}

// RulesRefreshLockKey guards concurrent rule cache rebuilds.
const RulesRefreshLockKey = "pricing:rules:refresh:lock"
