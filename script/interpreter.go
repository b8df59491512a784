package script

import (
	"bytes"
)

// maxOpCount is the maximum count of opcodes above OP_16 per script,
// counted in executed and unexecuted branches alike; pushes, including
// OP_0 and OP_1..OP_16, are free. Each OP_CHECKMULTISIG charges its declared pubkey count against this
// budget in addition to the one charge for the opcode itself.
const maxOpCount = 201

// maxMultisigKeys bounds the pubkey count CHECKMULTISIG will accept before
// popping it off the stack.
const maxMultisigKeys = 20

// condState is the tri-state value a branch of the conditional stack can
// hold: executing true, executing false, or suppressed because an
// enclosing branch is false. An instruction executes only while every
// entry on the conditional stack is condExecTrue; OP_ELSE flips the top
// entry between true and false and leaves a suppressed entry suppressed.
type condState int

const (
	condExecTrue condState = iota
	condExecFalse
	condSkip
)

// Interpreter evaluates one Script program against a stack.
type Interpreter struct {
	Verifier SignatureVerifier
	Flags    TxScriptFlags

	stack    Stack
	altStack Stack

	opCount int

	lastCodeSepOffset int
}

// NewInterpreter builds an Interpreter using the default ECDSA verifier.
func NewInterpreter() *Interpreter {
	return &Interpreter{Verifier: ECDSAVerifier{}}
}

// CastToBool applies Script's truthiness rule: every byte must be zero,
// except that the last byte may be 0x80 (negative zero), which is still
// considered false.
func CastToBool(v []byte) bool {
	for i, b := range v {
		if b != 0 {
			if i == len(v)-1 && b == 0x80 {
				return false
			}
			return true
		}
	}
	return false
}

func boolBytes(b bool) []byte {
	if b {
		return []byte{1}
	}
	return nil
}

// Exec runs script against tx/inputIndex, returning nil if the script
// completed with a non-empty, CastToBool-true top stack element, or the
// ScriptError describing why it aborted.
func (ip *Interpreter) Exec(raw []byte, tx Transaction, inputIndex int) error {
	if len(raw) > MaxScriptSize {
		return newScriptError(ErrScriptSize, "script size %d exceeds max %d", len(raw), MaxScriptSize)
	}
	chunks, err := Parse(raw)
	if err != nil {
		return newScriptError(ErrBadOpcode, "%v", err)
	}

	var conds []condState

	for ci := 0; ci < len(chunks); ci++ {
		chunk := chunks[ci]

		// Disabled and always-illegal opcodes abort execution even inside
		// a currently-false conditional branch.
		if IsDisabled(chunk.Opcode) {
			return newScriptError(ErrDisabledOpcode, "disabled opcode %s", chunk.Opcode)
		}
		if IsAlwaysIllegal(chunk.Opcode) {
			return newScriptError(ErrBadOpcode, "always-illegal opcode %s", chunk.Opcode)
		}

		if chunk.Opcode > OP_16 {
			ip.opCount++
			if ip.opCount > maxOpCount {
				return newScriptError(ErrOpCount, "op count exceeds %d", maxOpCount)
			}
		}

		executing := true
		for _, c := range conds {
			if c != condExecTrue {
				executing = false
				break
			}
		}

		if !chunk.IsPush() {
			switch chunk.Opcode {
			case OP_IF, OP_NOTIF:
				if !executing {
					conds = append(conds, condSkip)
					continue
				}
				top, err := ip.stack.Pop()
				if err != nil {
					return newScriptError(ErrUnbalancedConditional, "%v", err)
				}
				branchTrue := CastToBool(top)
				if chunk.Opcode == OP_NOTIF {
					branchTrue = !branchTrue
				}
				if branchTrue {
					conds = append(conds, condExecTrue)
				} else {
					conds = append(conds, condExecFalse)
				}
				continue

			case OP_ELSE:
				if len(conds) == 0 {
					return newScriptError(ErrUnbalancedConditional, "OP_ELSE without matching OP_IF")
				}
				top := conds[len(conds)-1]
				switch top {
				case condExecTrue:
					conds[len(conds)-1] = condExecFalse
				case condExecFalse:
					conds[len(conds)-1] = condExecTrue
				}
				continue

			case OP_ENDIF:
				if len(conds) == 0 {
					return newScriptError(ErrUnbalancedConditional, "OP_ENDIF without matching OP_IF")
				}
				conds = conds[:len(conds)-1]
				continue
			}
		}

		if !executing {
			continue
		}

		if chunk.IsPush() {
			if len(chunk.Data) > MaxScriptElementSize {
				return newScriptError(ErrPushSize, "pushed element of %d bytes exceeds max %d", len(chunk.Data), MaxScriptElementSize)
			}
			ip.stack.Push(chunk.Data)
			if err := ip.checkStackSize(); err != nil {
				return err
			}
			continue
		}

		if err := ip.execOpcode(chunk, raw, tx, inputIndex); err != nil {
			return err
		}
		if err := ip.checkStackSize(); err != nil {
			return err
		}
	}

	if len(conds) != 0 {
		return newScriptError(ErrUnbalancedConditional, "unterminated OP_IF/OP_NOTIF")
	}

	top, err := ip.stack.Top()
	if err != nil {
		return newScriptError(ErrEvalFalse, "script ended with empty stack")
	}
	if !CastToBool(top) {
		return newScriptError(ErrEvalFalse, "script ended with false top stack element")
	}
	if ip.Flags&TxScriptVerifyCleanStack != 0 && ip.stack.Depth() != 1 {
		return newScriptError(ErrCleanStack, "stack depth %d after execution, want 1", ip.stack.Depth())
	}
	return nil
}

// requireMinimal reports whether popped numeric stack values must use
// their minimal encoding, gated by TxScriptVerifyMinimalData.
func (ip *Interpreter) requireMinimal() bool {
	return ip.Flags&TxScriptVerifyMinimalData != 0
}

func (ip *Interpreter) checkStackSize() error {
	if ip.stack.Depth()+ip.altStack.Depth() > MaxStackSize {
		return newScriptError(ErrStackSize, "combined stack depth exceeds %d", MaxStackSize)
	}
	return nil
}

// connectedScript returns the portion of raw after the most recent
// OP_CODESEPARATOR (or the whole script if none has executed yet), used to
// build the scriptCode a signature check hashes against.
func (ip *Interpreter) connectedScript(raw []byte) []byte {
	return raw[ip.lastCodeSepOffset:]
}

func (ip *Interpreter) popInt(requireMinimal bool) (ScriptNum, error) {
	v, err := ip.stack.Pop()
	if err != nil {
		return 0, newScriptError(ErrInvalidStackOperation, "%v", err)
	}
	n, err := NewScriptNum(v, requireMinimal)
	if err != nil {
		return 0, newScriptError(ErrNumberOverflow, "%v", err)
	}
	return n, nil
}

func (ip *Interpreter) execOpcode(chunk Chunk, raw []byte, tx Transaction, inputIndex int) error {
	op := chunk.Opcode

	switch {
	case op == OP_1NEGATE:
		ip.stack.Push(ScriptNum(-1).Bytes())
		return nil
	case op >= OP_1 && op <= OP_16:
		ip.stack.Push(ScriptNum(int(op) - int(OP_1) + 1).Bytes())
		return nil
	}

	switch op {
	case OP_NOP, OP_NOP1, OP_NOP4, OP_NOP5, OP_NOP6, OP_NOP7, OP_NOP8, OP_NOP9, OP_NOP10:
		return nil

	case OP_VERIFY:
		top, err := ip.stack.Pop()
		if err != nil {
			return newScriptError(ErrInvalidStackOperation, "%v", err)
		}
		if !CastToBool(top) {
			return newScriptError(ErrVerify, "OP_VERIFY failed")
		}
		return nil

	case OP_RETURN:
		return newScriptError(ErrOpReturn, "OP_RETURN encountered")

	case OP_TOALTSTACK:
		v, err := ip.stack.Pop()
		if err != nil {
			return newScriptError(ErrInvalidStackOperation, "%v", err)
		}
		ip.altStack.Push(v)
		return nil

	case OP_FROMALTSTACK:
		v, err := ip.altStack.Pop()
		if err != nil {
			return newScriptError(ErrInvalidAltStackOperation, "%v", err)
		}
		ip.stack.Push(v)
		return nil

	case OP_DROP:
		_, err := ip.stack.Pop()
		return wrapStackErr(err)

	case OP_DUP:
		v, err := ip.stack.Top()
		if err != nil {
			return newScriptError(ErrInvalidStackOperation, "%v", err)
		}
		ip.stack.Push(v)
		return nil

	case OP_NIP:
		_, err := ip.stack.RemoveAt(-2)
		return wrapStackErr(err)

	case OP_OVER:
		v, err := ip.stack.At(-2)
		if err != nil {
			return newScriptError(ErrInvalidStackOperation, "%v", err)
		}
		ip.stack.Push(v)
		return nil

	case OP_PICK, OP_ROLL:
		n, err := ip.popInt(ip.requireMinimal())
		if err != nil {
			return err
		}
		idx := -1 - int(n)
		v, err := ip.stack.At(idx)
		if err != nil {
			return newScriptError(ErrInvalidStackOperation, "%v", err)
		}
		if op == OP_ROLL {
			if _, err := ip.stack.RemoveAt(idx); err != nil {
				return newScriptError(ErrInvalidStackOperation, "%v", err)
			}
		}
		ip.stack.Push(v)
		return nil

	case OP_ROT:
		v, err := ip.stack.RemoveAt(-3)
		if err != nil {
			return newScriptError(ErrInvalidStackOperation, "%v", err)
		}
		ip.stack.Push(v)
		return nil

	case OP_SWAP:
		a, err := ip.stack.RemoveAt(-2)
		if err != nil {
			return newScriptError(ErrInvalidStackOperation, "%v", err)
		}
		ip.stack.Push(a)
		return nil

	case OP_TUCK:
		v, err := ip.stack.Top()
		if err != nil {
			return newScriptError(ErrInvalidStackOperation, "%v", err)
		}
		ip.stack.InsertAt(-2, v)
		return nil

	case OP_2DROP:
		if _, err := ip.stack.Pop(); err != nil {
			return newScriptError(ErrInvalidStackOperation, "%v", err)
		}
		_, err := ip.stack.Pop()
		return wrapStackErr(err)

	case OP_2DUP:
		a, err := ip.stack.At(-2)
		if err != nil {
			return newScriptError(ErrInvalidStackOperation, "%v", err)
		}
		b, err := ip.stack.At(-1)
		if err != nil {
			return newScriptError(ErrInvalidStackOperation, "%v", err)
		}
		ip.stack.Push(a)
		ip.stack.Push(b)
		return nil

	case OP_DEPTH:
		ip.stack.Push(ScriptNum(ip.stack.Depth()).Bytes())
		return nil

	case OP_IFDUP:
		v, err := ip.stack.Top()
		if err != nil {
			return newScriptError(ErrInvalidStackOperation, "%v", err)
		}
		if CastToBool(v) {
			ip.stack.Push(v)
		}
		return nil

	case OP_SIZE:
		v, err := ip.stack.Top()
		if err != nil {
			return newScriptError(ErrInvalidStackOperation, "%v", err)
		}
		ip.stack.Push(ScriptNum(len(v)).Bytes())
		return nil

	case OP_EQUAL, OP_EQUALVERIFY:
		a, err := ip.stack.Pop()
		if err != nil {
			return newScriptError(ErrInvalidStackOperation, "%v", err)
		}
		b, err := ip.stack.Pop()
		if err != nil {
			return newScriptError(ErrInvalidStackOperation, "%v", err)
		}
		eq := bytes.Equal(a, b)
		if op == OP_EQUALVERIFY {
			if !eq {
				return newScriptError(ErrEqualVerify, "OP_EQUALVERIFY failed")
			}
			return nil
		}
		ip.stack.Push(boolBytes(eq))
		return nil

	case OP_1ADD, OP_1SUB, OP_NEGATE, OP_ABS, OP_NOT, OP_0NOTEQUAL:
		n, err := ip.popInt(ip.requireMinimal())
		if err != nil {
			return err
		}
		var result ScriptNum
		switch op {
		case OP_1ADD:
			result = n + 1
		case OP_1SUB:
			result = n - 1
		case OP_NEGATE:
			result = -n
		case OP_ABS:
			if n < 0 {
				result = -n
			} else {
				result = n
			}
		case OP_NOT:
			if n == 0 {
				result = 1
			}
		case OP_0NOTEQUAL:
			if n != 0 {
				result = 1
			}
		}
		ip.stack.Push(result.Bytes())
		return nil

	case OP_ADD, OP_SUB, OP_BOOLAND, OP_BOOLOR, OP_NUMEQUAL, OP_NUMEQUALVERIFY,
		OP_NUMNOTEQUAL, OP_LESSTHAN, OP_GREATERTHAN, OP_LESSTHANOREQUAL,
		OP_GREATERTHANOREQUAL, OP_MIN, OP_MAX:
		b, err := ip.popInt(ip.requireMinimal())
		if err != nil {
			return err
		}
		a, err := ip.popInt(ip.requireMinimal())
		if err != nil {
			return err
		}
		var result ScriptNum
		var boolResult *bool
		switch op {
		case OP_ADD:
			result = a + b
		case OP_SUB:
			result = a - b
		case OP_BOOLAND:
			r := a != 0 && b != 0
			boolResult = &r
		case OP_BOOLOR:
			r := a != 0 || b != 0
			boolResult = &r
		case OP_NUMEQUAL, OP_NUMEQUALVERIFY:
			r := a == b
			boolResult = &r
		case OP_NUMNOTEQUAL:
			r := a != b
			boolResult = &r
		case OP_LESSTHAN:
			r := a < b
			boolResult = &r
		case OP_GREATERTHAN:
			r := a > b
			boolResult = &r
		case OP_LESSTHANOREQUAL:
			r := a <= b
			boolResult = &r
		case OP_GREATERTHANOREQUAL:
			r := a >= b
			boolResult = &r
		case OP_MIN:
			if a < b {
				result = a
			} else {
				result = b
			}
		case OP_MAX:
			if a > b {
				result = a
			} else {
				result = b
			}
		}
		if boolResult != nil {
			if op == OP_NUMEQUALVERIFY {
				if !*boolResult {
					return newScriptError(ErrNumEqualVerify, "OP_NUMEQUALVERIFY failed")
				}
				return nil
			}
			ip.stack.Push(boolBytes(*boolResult))
			return nil
		}
		ip.stack.Push(result.Bytes())
		return nil

	case OP_WITHIN:
		max, err := ip.popInt(ip.requireMinimal())
		if err != nil {
			return err
		}
		min, err := ip.popInt(ip.requireMinimal())
		if err != nil {
			return err
		}
		x, err := ip.popInt(ip.requireMinimal())
		if err != nil {
			return err
		}
		ip.stack.Push(boolBytes(x >= min && x < max))
		return nil

	case OP_RIPEMD160, OP_SHA1, OP_SHA256, OP_HASH160, OP_HASH256:
		v, err := ip.stack.Pop()
		if err != nil {
			return newScriptError(ErrInvalidStackOperation, "%v", err)
		}
		switch op {
		case OP_RIPEMD160:
			ip.stack.Push(ripemd160Sum(v))
		case OP_SHA1:
			ip.stack.Push(sha1Sum(v))
		case OP_SHA256:
			ip.stack.Push(sha256Sum(v))
		case OP_HASH160:
			ip.stack.Push(hash160(v))
		case OP_HASH256:
			ip.stack.Push(hash256(v))
		}
		return nil

	case OP_CODESEPARATOR:
		ip.lastCodeSepOffset = chunk.Offset + 1
		return nil

	case OP_CHECKSIG, OP_CHECKSIGVERIFY:
		pubKey, err := ip.stack.Pop()
		if err != nil {
			return newScriptError(ErrInvalidStackOperation, "%v", err)
		}
		sig, err := ip.stack.Pop()
		if err != nil {
			return newScriptError(ErrInvalidStackOperation, "%v", err)
		}
		scriptCode := RemoveAll(ip.connectedScript(raw), sig)
		ok := ip.Verifier.CheckSig(tx, sig, pubKey, scriptCode, inputIndex)
		if op == OP_CHECKSIGVERIFY {
			if !ok {
				return newScriptError(ErrCheckSigVerify, "OP_CHECKSIGVERIFY failed")
			}
			return nil
		}
		ip.stack.Push(boolBytes(ok))
		return nil

	case OP_CHECKMULTISIG, OP_CHECKMULTISIGVERIFY:
		return ip.execCheckMultiSig(op, raw, tx, inputIndex)

	case OP_CHECKLOCKTIMEVERIFY, OP_CHECKSEQUENCEVERIFY:
		// Treated as a NOP: the pool/peer layer has no chain-relative
		// clock to evaluate these against, matching scripts run outside
		// full block-validation context.
		return nil
	}

	return newScriptError(ErrBadOpcode, "unimplemented opcode %s", op)
}

// execCheckMultiSig reproduces the classic off-by-one: one extra item is
// popped off the stack after the declared pubkey/sig counts are consumed,
// historically meant for a dummy element callers must supply.
func (ip *Interpreter) execCheckMultiSig(op Opcode, raw []byte, tx Transaction, inputIndex int) error {
	nKeys, err := ip.popInt(ip.requireMinimal())
	if err != nil {
		return err
	}
	if nKeys < 0 || int(nKeys) > maxMultisigKeys {
		return newScriptError(ErrPubKeyCount, "pubkey count %d out of range", nKeys)
	}
	ip.opCount += int(nKeys)
	if ip.opCount > maxOpCount {
		return newScriptError(ErrOpCount, "op count exceeds %d", maxOpCount)
	}

	pubKeys := make([][]byte, nKeys)
	for i := int(nKeys) - 1; i >= 0; i-- {
		v, err := ip.stack.Pop()
		if err != nil {
			return newScriptError(ErrInvalidStackOperation, "%v", err)
		}
		pubKeys[i] = v
	}

	nSigs, err := ip.popInt(ip.requireMinimal())
	if err != nil {
		return err
	}
	if nSigs < 0 || nSigs > nKeys {
		return newScriptError(ErrSigCount, "sig count %d out of range", nSigs)
	}

	sigs := make([][]byte, nSigs)
	for i := int(nSigs) - 1; i >= 0; i-- {
		v, err := ip.stack.Pop()
		if err != nil {
			return newScriptError(ErrInvalidStackOperation, "%v", err)
		}
		sigs[i] = v
	}

	// The documented off-by-one: one extra stack item is consumed here,
	// historically an unused dummy value.
	if _, err := ip.stack.Pop(); err != nil {
		return newScriptError(ErrInvalidStackOperation, "%v", err)
	}

	scriptCode := ip.connectedScript(raw)
	for _, sig := range sigs {
		scriptCode = RemoveAll(scriptCode, sig)
	}

	ok := CheckMultiSig(ip.Verifier, tx, sigs, pubKeys, scriptCode, inputIndex)
	if op == OP_CHECKMULTISIGVERIFY {
		if !ok {
			return newScriptError(ErrCheckSigVerify, "OP_CHECKMULTISIGVERIFY failed")
		}
		return nil
	}
	ip.stack.Push(boolBytes(ok))
	return nil
}

func wrapStackErr(err error) error {
	if err == nil {
		return nil
	}
	return newScriptError(ErrInvalidStackOperation, "%v", err)
}

// CorrectlySpends runs the P2SH-aware two-stage evaluation: execute
// scriptSig, then scriptPubKey against the resulting stack, and if
// scriptPubKey is itself a P2SH template (OP_HASH160 <20 bytes> OP_EQUAL),
// re-run the redeem script popped off the scriptSig's stack against the
// hash it unlocked.
func CorrectlySpends(verifier SignatureVerifier, flags TxScriptFlags, scriptSig, scriptPubKey []byte, tx Transaction, inputIndex int) error {
	ip := &Interpreter{Verifier: verifier, Flags: flags}

	sigChunks, err := Parse(scriptSig)
	if err != nil {
		return newScriptError(ErrBadOpcode, "%v", err)
	}
	if flags&TxScriptVerifySigPushOnly != 0 {
		for _, c := range sigChunks {
			if c.IsPush() {
				continue
			}
			return newScriptError(ErrBadOpcode, "scriptSig may only push data")
		}
	}

	if err := ip.Exec(scriptSig, tx, inputIndex); err != nil {
		return err
	}
	// Snapshot the post-scriptSig stack before scriptPubKey runs against
	// it: Stack.items is a slice, so without cloning, scriptPubKey's own
	// pushes/pops (starting with OP_HASH160) would silently overwrite the
	// very snapshot the P2SH redeem-script step below depends on.
	stackAfterSig := ip.stack.Clone()

	ip2 := &Interpreter{Verifier: verifier, Flags: flags, stack: stackAfterSig.Clone()}
	if err := ip2.Exec(scriptPubKey, tx, inputIndex); err != nil {
		return err
	}

	if flags&TxScriptBip16 == 0 || !isPayToScriptHash(scriptPubKey) {
		return nil
	}

	redeemScript, err := stackAfterSig.Pop()
	if err != nil {
		return newScriptError(ErrEvalFalse, "missing redeem script for P2SH spend")
	}

	ip3 := &Interpreter{Verifier: verifier, Flags: flags, stack: stackAfterSig}
	return ip3.Exec(redeemScript, tx, inputIndex)
}

func isPayToScriptHash(script []byte) bool {
	return len(script) == 23 &&
		script[0] == byte(OP_HASH160) &&
		script[1] == 0x14 &&
		script[22] == byte(OP_EQUAL)
}
