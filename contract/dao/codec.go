package dao

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"okinoko_ledger/sdk"
)

// Records are stored as compact big-endian binary blobs. Each encoder starts
// with a one-byte layout version so fields can be appended later.
const codecVersion byte = 1

var errUnexpectedEOF = errors.New("unexpected EOF")

type binWriter struct {
	buf bytes.Buffer
}

func newWriter() *binWriter {
	w := &binWriter{}
	w.buf.WriteByte(codecVersion)
	return w
}

func (w *binWriter) bytes() []byte { return w.buf.Bytes() }

func (w *binWriter) writeBool(v bool) {
	if v {
		w.buf.WriteByte(1)
	} else {
		w.buf.WriteByte(0)
	}
}

func (w *binWriter) writeUint64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

func (w *binWriter) writeInt64(v int64) {
	w.writeUint64(uint64(v))
}

func (w *binWriter) writeVarUint(v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	w.buf.Write(tmp[:n])
}

// writeU256 stores the full 32 bytes so every amount has a fixed width.
func (w *binWriter) writeU256(v *uint256.Int) {
	b := v.Bytes32()
	w.buf.Write(b[:])
}

func (w *binWriter) writeString(s string) {
	w.writeVarUint(uint64(len(s)))
	w.buf.WriteString(s)
}

func (w *binWriter) writeAddress(a sdk.Address) {
	w.writeString(a.String())
}

// ------------------------------------------------------------------
// Decoder helpers
// ------------------------------------------------------------------

type binReader struct {
	data []byte
	pos  int
	err  error
}

func newReader(data []byte) *binReader {
	r := &binReader{data: data}
	v := r.readByte()
	if r.err == nil && v != codecVersion {
		r.err = fmt.Errorf("unknown layout version %d", v)
	}
	return r
}

func (r *binReader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *binReader) readByte() byte {
	if r.err != nil {
		return 0
	}
	if r.pos >= len(r.data) {
		r.fail(errUnexpectedEOF)
		return 0
	}
	b := r.data[r.pos]
	r.pos++
	return b
}

func (r *binReader) readBool() bool {
	return r.readByte() == 1
}

func (r *binReader) readUint64() uint64 {
	if r.err != nil {
		return 0
	}
	if r.pos+8 > len(r.data) {
		r.fail(errUnexpectedEOF)
		return 0
	}
	val := binary.BigEndian.Uint64(r.data[r.pos : r.pos+8])
	r.pos += 8
	return val
}

func (r *binReader) readInt64() int64 {
	return int64(r.readUint64())
}

func (r *binReader) readVarUint() uint64 {
	if r.err != nil {
		return 0
	}
	val, n := binary.Uvarint(r.data[r.pos:])
	if n <= 0 {
		r.fail(errors.New("invalid varuint"))
		return 0
	}
	r.pos += n
	return val
}

func (r *binReader) readU256(dst *uint256.Int) {
	if r.err != nil {
		return
	}
	if r.pos+32 > len(r.data) {
		r.fail(errUnexpectedEOF)
		return
	}
	dst.SetBytes32(r.data[r.pos : r.pos+32])
	r.pos += 32
}

func (r *binReader) readString() string {
	l := r.readVarUint()
	if r.err != nil {
		return ""
	}
	if uint64(len(r.data)-r.pos) < l {
		r.fail(errUnexpectedEOF)
		return ""
	}
	s := string(r.data[r.pos : r.pos+int(l)])
	r.pos += int(l)
	return s
}

func (r *binReader) readAddress() sdk.Address {
	return sdk.Address(r.readString())
}

// finish reports the first decode failure wrapped as ErrCorruptRecord, and
// treats trailing bytes as corruption too.
func (r *binReader) finish(what string) error {
	if r.err == nil && r.pos != len(r.data) {
		r.err = fmt.Errorf("%d trailing bytes", len(r.data)-r.pos)
	}
	if r.err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorruptRecord, what, r.err)
	}
	return nil
}

// ------------------------------------------------------------------
// Record codecs
// ------------------------------------------------------------------

func EncodeInstanceMeta(m *InstanceMeta) []byte {
	w := newWriter()
	w.writeAddress(m.Address)
	w.writeAddress(m.Owner)
	w.writeAddress(m.Creator)
	w.writeUint64(m.Sequence)
	w.writeInt64(m.CreatedAt)
	w.writeUint64(m.CreatedHeight)
	return w.bytes()
}

func DecodeInstanceMeta(data []byte) (*InstanceMeta, error) {
	r := newReader(data)
	m := &InstanceMeta{
		Address:       r.readAddress(),
		Owner:         r.readAddress(),
		Creator:       r.readAddress(),
		Sequence:      r.readUint64(),
		CreatedAt:     r.readInt64(),
		CreatedHeight: r.readUint64(),
	}
	if err := r.finish("instance meta"); err != nil {
		return nil, err
	}
	return m, nil
}

func EncodeRewardState(rs *RewardState) []byte {
	w := newWriter()
	w.writeU256(&rs.RewardRatePerSecond)
	w.writeInt64(rs.LastAccrualTime)
	w.writeU256(&rs.CumulativeRewardPerStakedUnit)
	w.writeU256(&rs.TotalStaked)
	w.writeU256(&rs.TotalPendingRewards)
	w.writeU256(&rs.OwnerDepositedPool)
	return w.bytes()
}

func DecodeRewardState(data []byte) (*RewardState, error) {
	r := newReader(data)
	rs := &RewardState{}
	r.readU256(&rs.RewardRatePerSecond)
	rs.LastAccrualTime = r.readInt64()
	r.readU256(&rs.CumulativeRewardPerStakedUnit)
	r.readU256(&rs.TotalStaked)
	r.readU256(&rs.TotalPendingRewards)
	r.readU256(&rs.OwnerDepositedPool)
	if err := r.finish("reward state"); err != nil {
		return nil, err
	}
	return rs, nil
}

func EncodeDepositor(d *Depositor) []byte {
	w := newWriter()
	w.writeAddress(d.Address)
	w.writeU256(&d.StakedAmount)
	w.writeU256(&d.AccrualCheckpoint)
	w.writeU256(&d.PendingRewards)
	return w.bytes()
}

func DecodeDepositor(data []byte) (*Depositor, error) {
	r := newReader(data)
	d := &Depositor{Address: r.readAddress()}
	r.readU256(&d.StakedAmount)
	r.readU256(&d.AccrualCheckpoint)
	r.readU256(&d.PendingRewards)
	if err := r.finish("depositor"); err != nil {
		return nil, err
	}
	return d, nil
}

func EncodeVote(v *Vote) []byte {
	w := newWriter()
	w.writeUint64(v.ProposalID)
	w.buf.WriteByte(byte(v.Direction))
	w.writeString(v.Reason)
	w.writeUint64(v.BlockHeight)
	w.writeInt64(v.Timestamp)
	w.writeU256(&v.VotingPowerAtCast)
	return w.bytes()
}

func DecodeVote(data []byte) (*Vote, error) {
	r := newReader(data)
	v := &Vote{
		ProposalID:  r.readUint64(),
		Direction:   Direction(r.readByte()),
		Reason:      r.readString(),
		BlockHeight: r.readUint64(),
		Timestamp:   r.readInt64(),
	}
	r.readU256(&v.VotingPowerAtCast)
	if err := r.finish("vote"); err != nil {
		return nil, err
	}
	return v, nil
}

func EncodeProposalStake(s *ProposalStake) []byte {
	w := newWriter()
	w.writeUint64(s.ProposalID)
	w.writeAddress(s.Staker)
	w.buf.WriteByte(byte(s.Side))
	w.writeU256(&s.Amount)
	w.buf.WriteByte(byte(s.Status))
	w.writeU256(&s.Payout)
	return w.bytes()
}

func DecodeProposalStake(data []byte) (*ProposalStake, error) {
	r := newReader(data)
	s := &ProposalStake{
		ProposalID: r.readUint64(),
		Staker:     r.readAddress(),
		Side:       Side(r.readByte()),
	}
	r.readU256(&s.Amount)
	s.Status = StakeStatus(r.readByte())
	r.readU256(&s.Payout)
	if err := r.finish("proposal stake"); err != nil {
		return nil, err
	}
	return s, nil
}

func EncodeStakeTotals(t *ProposalStakeTotals) []byte {
	w := newWriter()
	w.writeUint64(t.ProposalID)
	w.writeU256(&t.TotalFor)
	w.writeU256(&t.TotalAgainst)
	w.writeUint64(t.StakerCount)
	w.buf.WriteByte(byte(t.Status))
	w.buf.WriteByte(byte(t.Outcome))
	w.writeBool(t.ResolvedAt != 0)
	if t.ResolvedAt != 0 {
		w.writeInt64(t.ResolvedAt)
	}
	return w.bytes()
}

func DecodeStakeTotals(data []byte) (*ProposalStakeTotals, error) {
	r := newReader(data)
	t := &ProposalStakeTotals{ProposalID: r.readUint64()}
	r.readU256(&t.TotalFor)
	r.readU256(&t.TotalAgainst)
	t.StakerCount = r.readUint64()
	t.Status = MarketStatus(r.readByte())
	t.Outcome = Outcome(r.readByte())
	if r.readBool() {
		t.ResolvedAt = r.readInt64()
	}
	if err := r.finish("stake totals"); err != nil {
		return nil, err
	}
	return t, nil
}
