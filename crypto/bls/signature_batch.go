package bls

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/beacon-transition/async"
)

// Descriptions of the signatures collected into a batch during block processing.
const (
	BlockSignature             = "block signature"
	RandaoSignature            = "randao signature"
	AttestationSignature       = "attestation signature"
	ProposerSlashingSignature  = "proposer slashing signature"
	AttesterSlashingSignature  = "attester slashing signature"
	VoluntaryExitSignature     = "voluntary exit signature"
	UnknownSignatureDescriptor = "unknown signature"
)

// SignatureBatch refers to the defined set of
// signatures and its respective public keys and
// messages required to verify it.
type SignatureBatch struct {
	Signatures   [][]byte
	PublicKeys   []PublicKey
	Messages     [][32]byte
	Descriptions []string
}

// NewSet constructs an empty signature batch object.
func NewSet() *SignatureBatch {
	return &SignatureBatch{
		Signatures:   [][]byte{},
		PublicKeys:   []PublicKey{},
		Messages:     [][32]byte{},
		Descriptions: []string{},
	}
}

// Join merges the provided signature batch to out current one.
func (s *SignatureBatch) Join(set *SignatureBatch) *SignatureBatch {
	s.Signatures = append(s.Signatures, set.Signatures...)
	s.PublicKeys = append(s.PublicKeys, set.PublicKeys...)
	s.Messages = append(s.Messages, set.Messages...)
	s.Descriptions = append(s.Descriptions, set.Descriptions...)
	return s
}

// Verify the current signature batch using the batch verify algorithm.
func (s *SignatureBatch) Verify() (bool, error) {
	return VerifyMultipleSignatures(s.Signatures, s.Messages, s.PublicKeys)
}

// VerifyVerbosely verifies the batch and, when the batch check fails, checks every
// signature on its own to report which ones are invalid.
func (s *SignatureBatch) VerifyVerbosely() (bool, error) {
	valid, err := s.Verify()
	if err == nil && valid {
		return true, nil
	}
	if len(s.Signatures) == 0 {
		return false, err
	}
	// Each worker only writes to its own range of the result slice.
	failed := make([]bool, len(s.Signatures))
	if _, scatterErr := async.Scatter(len(s.Signatures), func(offset int, entries int) (interface{}, error) {
		for i := offset; i < offset+entries; i++ {
			ok, verr := VerifySignature(s.Signatures[i], s.Messages[i], s.PublicKeys[i])
			failed[i] = verr != nil || !ok
		}
		return nil, nil
	}); scatterErr != nil {
		return false, scatterErr
	}
	var errmsg strings.Builder
	for i, f := range failed {
		if !f {
			continue
		}
		desc := UnknownSignatureDescriptor
		if i < len(s.Descriptions) {
			desc = s.Descriptions[i]
		}
		errmsg.WriteString(fmt.Sprintf("signature %d (%s) is invalid\n", i, desc))
	}
	if errmsg.Len() == 0 {
		if err != nil {
			return false, err
		}
		return false, errors.New("batch verification failed but every signature is individually valid")
	}
	return false, errors.New(errmsg.String())
}

// Copy the attached signature batch and return it
// to the caller.
func (s *SignatureBatch) Copy() *SignatureBatch {
	signatures := make([][]byte, len(s.Signatures))
	pubkeys := make([]PublicKey, len(s.PublicKeys))
	messages := make([][32]byte, len(s.Messages))
	descriptions := make([]string, len(s.Descriptions))
	for i := range s.Signatures {
		sig := make([]byte, len(s.Signatures[i]))
		copy(sig, s.Signatures[i])
		signatures[i] = sig
	}
	for i := range s.PublicKeys {
		pubkeys[i] = s.PublicKeys[i].Copy()
	}
	copy(messages, s.Messages)
	copy(descriptions, s.Descriptions)
	return &SignatureBatch{
		Signatures:   signatures,
		PublicKeys:   pubkeys,
		Messages:     messages,
		Descriptions: descriptions,
	}
}
