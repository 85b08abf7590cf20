package securestore

// PasswordVault caches one password per account so the account switcher can
// re-authenticate without prompting. Caching raw credentials is a known
// trade-off accepted for this convenience; the backing store seals them at
// rest.
type PasswordVault struct {
	store Store
}

func NewPasswordVault(store Store) *PasswordVault {
	return &PasswordVault{store: store}
}

func passwordKey(uid string) string {
	return "password_" + uid
}

func (v *PasswordVault) Save(uid, password string) error {
	return v.store.Set(passwordKey(uid), password)
}

func (v *PasswordVault) Load(uid string) (string, error) {
	return v.store.Get(passwordKey(uid))
}

// Forget drops a cached password, e.g. after it stops authenticating.
func (v *PasswordVault) Forget(uid string) error {
	return v.store.Delete(passwordKey(uid))
}
