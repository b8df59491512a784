package script

import (
	"testing"

	"github.com/copernet/bitpeer/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTx struct {
	hash wire.Hash256
	ok   bool
}

func (s stubTx) SignatureHash(sigHashByte byte, inputIndex int, connectedScript []byte) (wire.Hash256, error) {
	return s.hash, nil
}

type stubVerifier struct{ result bool }

func (v stubVerifier) CheckSig(tx Transaction, sig, pubKey, connectedScript []byte, inputIndex int) bool {
	return v.result
}

func TestCastToBool(t *testing.T) {
	assert.False(t, CastToBool(nil))
	assert.False(t, CastToBool([]byte{0x00}))
	assert.False(t, CastToBool([]byte{0x00, 0x80}))
	assert.True(t, CastToBool([]byte{0x01}))
	assert.True(t, CastToBool([]byte{0x00, 0x01}))
}

func TestScriptNumRoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 127, 128, -128, 32767, -32768, 16777215, -16777215} {
		n := ScriptNum(v)
		got, err := NewScriptNum(n.Bytes(), true)
		require.NoError(t, err)
		assert.Equal(t, v, int64(got))
	}
}

func TestExecSimpleAddEqualsFour(t *testing.T) {
	ip := NewInterpreter()
	err := ip.Exec([]byte{byte(OP_2), byte(OP_2), byte(OP_ADD), byte(OP_4), byte(OP_EQUAL)}, stubTx{}, 0)
	assert.NoError(t, err)
}

func TestExecDisabledOpcodeAbortsEvenInDeadBranch(t *testing.T) {
	ip := NewInterpreter()
	// OP_0 OP_IF OP_CAT OP_ENDIF -- OP_CAT never executes but must still abort.
	err := ip.Exec([]byte{byte(OP_0), byte(OP_IF), byte(OP_CAT), byte(OP_ENDIF)}, stubTx{}, 0)
	require.Error(t, err)
	var serr *ScriptError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, ErrDisabledOpcode, serr.Code)
}

func TestExecAlwaysIllegalAbortsInDeadBranch(t *testing.T) {
	ip := NewInterpreter()
	err := ip.Exec([]byte{byte(OP_0), byte(OP_IF), byte(OP_VERIF), byte(OP_ENDIF)}, stubTx{}, 0)
	require.Error(t, err)
}

func TestExecUnterminatedIfFails(t *testing.T) {
	ip := NewInterpreter()
	err := ip.Exec([]byte{byte(OP_1), byte(OP_IF), byte(OP_1)}, stubTx{}, 0)
	require.Error(t, err)
	var serr *ScriptError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, ErrUnbalancedConditional, serr.Code)
}

func TestExecNumericOverflowGuard(t *testing.T) {
	ip := NewInterpreter()
	oversized := []byte{1, 2, 3, 4, 5}
	err := ip.Exec(append([]byte{byte(len(oversized))}, append(oversized, byte(OP_1ADD))...), stubTx{}, 0)
	require.Error(t, err)
	var serr *ScriptError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, ErrNumberOverflow, serr.Code)
}

func TestCheckSigPushesVerifierResult(t *testing.T) {
	ip := &Interpreter{Verifier: stubVerifier{result: true}}
	err := ip.Exec([]byte{0x01, 0x99, 0x01, 0x99, byte(OP_CHECKSIG)}, stubTx{}, 0)
	assert.NoError(t, err)
}

func TestCheckMultiSigOffByOneConsumesDummy(t *testing.T) {
	ip := &Interpreter{Verifier: stubVerifier{result: true}}
	// dummy 0, 1-of-1 with one sig and one key.
	script := []byte{
		byte(OP_0),
		0x01, 0xaa, // sig
		byte(OP_1),
		0x01, 0xbb, // key
		byte(OP_1),
		byte(OP_CHECKMULTISIG),
	}
	err := ip.Exec(script, stubTx{}, 0)
	assert.NoError(t, err)
}

func TestRemoveAllStripsMatchingPush(t *testing.T) {
	sig := []byte{0xde, 0xad, 0xbe, 0xef}
	scriptCode := append(encodePush(sig), byte(OP_CHECKSIG))
	out := RemoveAll(scriptCode, sig)
	assert.Equal(t, []byte{byte(OP_CHECKSIG)}, out)
}

func TestRemoveAllIsIdempotent(t *testing.T) {
	sig := []byte{0x01, 0x02, 0x03}
	scriptCode := append(encodePush(sig), byte(OP_DUP))
	once := RemoveAll(scriptCode, sig)
	twice := RemoveAll(once, sig)
	assert.Equal(t, once, twice)
}

func TestStackSizeLimitEnforced(t *testing.T) {
	ip := NewInterpreter()
	var raw []byte
	for i := 0; i < MaxStackSize+1; i++ {
		raw = append(raw, byte(OP_1))
	}
	err := ip.Exec(raw, stubTx{}, 0)
	require.Error(t, err)
	var serr *ScriptError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, ErrStackSize, serr.Code)
}

func TestCorrectlySpendsP2PKH(t *testing.T) {
	verifier := stubVerifier{result: true}
	pubKey := []byte{0x02, 0x03, 0x04}
	sig := []byte{0xaa, 0xbb}

	scriptSig := append(encodePush(sig), encodePush(pubKey)...)
	pkHash := hash160(pubKey)
	scriptPubKey := append([]byte{byte(OP_DUP), byte(OP_HASH160)}, encodePush(pkHash)...)
	scriptPubKey = append(scriptPubKey, byte(OP_EQUALVERIFY), byte(OP_CHECKSIG))

	err := CorrectlySpends(verifier, TxScriptBip16, scriptSig, scriptPubKey, stubTx{}, 0)
	assert.NoError(t, err)
}

func TestCorrectlySpendsP2SHRunsRedeemScript(t *testing.T) {
	verifier := stubVerifier{result: true}
	redeem := []byte{byte(OP_1)} // trivially true redeem script
	redeemHash := hash160(redeem)

	scriptSig := encodePush(redeem)
	scriptPubKey := append([]byte{byte(OP_HASH160)}, encodePush(redeemHash)...)
	scriptPubKey = append(scriptPubKey, byte(OP_EQUAL))

	err := CorrectlySpends(verifier, TxScriptBip16, scriptSig, scriptPubKey, stubTx{}, 0)
	assert.NoError(t, err)
}

func TestCleanStackFlagRejectsLeftoverItems(t *testing.T) {
	ip := &Interpreter{Verifier: ECDSAVerifier{}, Flags: TxScriptVerifyCleanStack}
	err := ip.Exec([]byte{byte(OP_1), byte(OP_1)}, stubTx{}, 0)
	require.Error(t, err)
	var serr *ScriptError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, ErrCleanStack, serr.Code)
}

func TestPushSizeLimitEnforced(t *testing.T) {
	ip := NewInterpreter()
	raw := append([]byte{byte(OP_PUSHDATA2)}, 0x0a, 0x03) // 0x030a = 778 > 520
	raw = append(raw, make([]byte, 778)...)
	err := ip.Exec(raw, stubTx{}, 0)
	require.Error(t, err)
	var serr *ScriptError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, ErrPushSize, serr.Code)
}
