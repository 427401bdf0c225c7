package frontend

import "golang.org/x/crypto/bcrypt"

// CredentialStore holds the demo user database as bcrypt hashes.
type CredentialStore struct {
	hashes map[string][]byte
}

// NewCredentialStore hashes the given plaintext credentials. Intended for
// the demo portal only; a real deployment verifies against its own user
// store and reports the outcome to the decision engine.
func NewCredentialStore(users map[string]string) (*CredentialStore, error) {
	hashes := make(map[string][]byte, len(users))
	for username, password := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hashes[username] = hash
	}
	return &CredentialStore{hashes: hashes}, nil
}

// Verify reports whether the username and password pair is valid. Unknown
// usernames still burn a bcrypt comparison so the two failure modes are
// not distinguishable by timing.
func (cs *CredentialStore) Verify(username, password string) bool {
	hash, ok := cs.hashes[username]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

var dummyHash = func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("placeholder-password"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return h
}()
