package group

// SetInviteCodeGenerator replaces the invite code generator until restore is called.
func SetInviteCodeGenerator(gen func() (string, error)) (restore func()) {
	orig := newInviteCode
	newInviteCode = gen
	return func() { newInviteCode = orig }
}
