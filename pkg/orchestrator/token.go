// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package orchestrator

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/teradata-labs/levelapp/pkg/types"
)

// TokenTTL is the launch-token lifetime. Tokens are deliberately
// shorter-lived than sessions.
const TokenTTL = 5 * time.Minute

// tokenAudience is the aud claim on every launch token.
const tokenAudience = "orchestrator"

// LaunchClaims is the payload of a signed launch token.
type LaunchClaims struct {
	SessionID    string             `json:"session_id"`
	ProjectID    string             `json:"project_id"`
	WorkflowType types.WorkflowType `json:"workflow_type"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies launch tokens with HS256 over a process
// secret.
type TokenIssuer struct {
	secret []byte
	now    func() time.Time
}

// NewTokenIssuer creates an issuer over the given secret.
func NewTokenIssuer(secret []byte) *TokenIssuer {
	return &TokenIssuer{secret: secret, now: time.Now}
}

// Issue mints a launch token for the session, valid for 5 minutes.
func (i *TokenIssuer) Issue(session types.WorkflowSession) (string, error) {
	now := i.now()
	claims := LaunchClaims{
		SessionID:    session.SessionID,
		ProjectID:    session.ProjectID,
		WorkflowType: session.WorkflowType,
		RegisteredClaims: jwt.RegisteredClaims{
			// The jti keeps same-second reissues distinct on the wire.
			ID:        uuid.NewString(),
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign launch token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a launch token, returning its claims.
func (i *TokenIssuer) Verify(raw string) (*LaunchClaims, error) {
	claims := &LaunchClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithAudience(tokenAudience), jwt.WithTimeFunc(func() time.Time { return i.now() }))
	if err != nil {
		return nil, fmt.Errorf("verify launch token: %w", err)
	}
	return claims, nil
}
