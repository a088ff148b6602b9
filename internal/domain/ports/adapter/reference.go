package adapter

// ReferenceGenerator mints external references for bills. The returned token
// is the anti-replay component embedded in the reference; it is kept on the
// checkout session so later calls can assert they originate from the same
// submission.
type ReferenceGenerator interface {
	Generate(sessionID string) (reference string, token string, err error)
	// Verify checks that a token is authentic and was minted for sessionID.
	Verify(sessionID, token string) error
}
