package googlesvc

import (
	"context"

	googleAuthIDTokenVerifier "github.com/futurenda/google-auth-id-token-verifier"
	"github.com/pkg/errors"

	"github.com/trezcool/loo7/core/sheikh"
)

type verifier struct {
	clientID string
	v        googleAuthIDTokenVerifier.Verifier
}

var _ sheikh.TokenVerifier = (*verifier)(nil)

// NewVerifier verifies Google sign-in ID tokens issued for clientID.
func NewVerifier(clientID string) sheikh.TokenVerifier {
	return &verifier{clientID: clientID}
}

func (vf *verifier) Verify(_ context.Context, idToken string) (sheikh.GoogleIdentity, error) {
	if err := vf.v.VerifyIDToken(idToken, []string{vf.clientID}); err != nil {
		return sheikh.GoogleIdentity{}, errors.Wrap(err, "verifying google id token")
	}
	claims, err := googleAuthIDTokenVerifier.Decode(idToken)
	if err != nil {
		return sheikh.GoogleIdentity{}, errors.Wrap(err, "decoding google id token")
	}
	return sheikh.GoogleIdentity{
		Subject: claims.Sub,
		Email:   claims.Email,
		Name:    claims.Name,
	}, nil
}
