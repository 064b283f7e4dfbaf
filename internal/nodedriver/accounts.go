package nodedriver

import (
	"sync"

	"feditest/internal/testplan"
)

// AccountManager hands out the accounts a node knows about to tests that
// ask for them by account role.
type AccountManager interface {
	ObtainAccountByRole(role string) (*testplan.ExistingAccount, error)
	ObtainNonExistingAccountByRole(role string) (*testplan.NonExistingAccount, error)
}

// DefaultAccountManager allocates accounts from a fixed list. An account
// tagged with the requested role wins; otherwise the first untagged,
// unallocated account is taken. Once allocated, a role always gets the
// same account.
type DefaultAccountManager struct {
	mu sync.Mutex

	accounts    []testplan.ExistingAccount
	nonExisting []testplan.NonExistingAccount

	allocated            map[string]int
	allocatedNonExisting map[string]int
}

// NewDefaultAccountManager creates an account manager over copies of the
// given accounts.
func NewDefaultAccountManager(accounts []testplan.ExistingAccount, nonExisting []testplan.NonExistingAccount) *DefaultAccountManager {
	return &DefaultAccountManager{
		accounts:             append([]testplan.ExistingAccount(nil), accounts...),
		nonExisting:          append([]testplan.NonExistingAccount(nil), nonExisting...),
		allocated:            map[string]int{},
		allocatedNonExisting: map[string]int{},
	}
}

// NewAccountManagerFor returns a DefaultAccountManager for the accounts of
// a plan node, or nil if the node lists none.
func NewAccountManagerFor(node *testplan.ConstellationNode) AccountManager {
	if node == nil || (len(node.Accounts) == 0 && len(node.NonExistingAccounts) == 0) {
		return nil
	}
	return NewDefaultAccountManager(node.Accounts, node.NonExistingAccounts)
}

func (m *DefaultAccountManager) ObtainAccountByRole(role string) (*testplan.ExistingAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	roles := make([]string, len(m.accounts))
	for i, a := range m.accounts {
		roles[i] = a.Role
	}
	i, ok := allocate(role, roles, m.allocated)
	if !ok {
		return nil, &NoAccountError{Role: role}
	}
	account := m.accounts[i]
	return &account, nil
}

func (m *DefaultAccountManager) ObtainNonExistingAccountByRole(role string) (*testplan.NonExistingAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	roles := make([]string, len(m.nonExisting))
	for i, a := range m.nonExisting {
		roles[i] = a.Role
	}
	i, ok := allocate(role, roles, m.allocatedNonExisting)
	if !ok {
		return nil, &NoAccountError{Role: role, NonExisting: true}
	}
	account := m.nonExisting[i]
	return &account, nil
}

func allocate(role string, tags []string, allocated map[string]int) (int, bool) {
	if i, ok := allocated[role]; ok {
		return i, true
	}
	taken := make(map[int]bool, len(allocated))
	for _, i := range allocated {
		taken[i] = true
	}
	for i, tag := range tags {
		if tag == role && !taken[i] {
			allocated[role] = i
			return i, true
		}
	}
	for i, tag := range tags {
		if tag == "" && !taken[i] {
			allocated[role] = i
			return i, true
		}
	}
	return 0, false
}
