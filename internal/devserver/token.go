package devserver

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"

	"github.com/google/uuid"
)

var jwtHeader = base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))

// issueToken returns an opaque token with the three-part JWT layout. The
// signature segment is random; the dev backend validates by lookup only.
func issueToken(userID string) string {
	payload, _ := json.Marshal(map[string]string{"sub": userID, "jti": uuid.NewString()})
	nonce := make([]byte, 16)
	_, _ = rand.Read(nonce)
	sig := sha256.Sum256(append(payload, nonce...))
	return jwtHeader + "." + base64.RawURLEncoding.EncodeToString(payload) + "." + base64.RawURLEncoding.EncodeToString(sig[:])
}
