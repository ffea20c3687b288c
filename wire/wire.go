// Package wire implements the fixed byte layout for state-exchange
// messages and a gob encoding for configuration-change actions, following
// a pattern of small, direction-per-function encode/decode helpers.
package wire

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/codership/gcsgroup/group"
)

// EncodeState serializes a state descriptor in a fixed field order:
// state-exchange UUID, group UUID, act_id, conf_id, status, NUL-terminated
// name, NUL-terminated incoming address, protocol min, protocol max.
func EncodeState(d group.StateDescriptor) ([]byte, error) {
	if len(d.Name()) > group.MaxMemberNameLen || len(d.IncomingAddr()) > group.MaxMemberNameLen {
		return nil, fmt.Errorf("wire: name or address exceeds %d bytes", group.MaxMemberNameLen)
	}

	buf := new(bytes.Buffer)
	stateUUID := d.StateUUID()
	groupUUID := d.GroupUUID()
	buf.Write(stateUUID[:])
	buf.Write(groupUUID[:])
	if err := binary.Write(buf, binary.LittleEndian, d.ActID()); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, d.ConfID()); err != nil {
		return nil, err
	}
	buf.WriteByte(byte(d.MemberStatus()))
	buf.WriteString(d.Name())
	buf.WriteByte(0)
	buf.WriteString(d.IncomingAddr())
	buf.WriteByte(0)
	if err := binary.Write(buf, binary.LittleEndian, d.ProtoMin()); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, d.ProtoMax()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeState parses a buffer produced by EncodeState. It returns an error
// rather than panicking on truncated input, and validates the decoded
// status and protocol range before returning; callers handling a state
// message log and drop such messages rather than propagate the error as a
// protocol violation.
func DecodeState(buf []byte) (group.StateDescriptor, error) {
	const fixedHeader = 16 + 16 + 8 + 8 + 1 // uuids + act_id + conf_id + status
	if len(buf) < fixedHeader+2 {
		return group.StateDescriptor{}, fmt.Errorf("wire: state message too short (%d bytes)", len(buf))
	}

	r := bytes.NewReader(buf)

	var stateUUID, groupUUID uuid.UUID
	if _, err := r.Read(stateUUID[:]); err != nil {
		return group.StateDescriptor{}, err
	}
	if _, err := r.Read(groupUUID[:]); err != nil {
		return group.StateDescriptor{}, err
	}

	var actID, confID int64
	if err := binary.Read(r, binary.LittleEndian, &actID); err != nil {
		return group.StateDescriptor{}, err
	}
	if err := binary.Read(r, binary.LittleEndian, &confID); err != nil {
		return group.StateDescriptor{}, err
	}

	statusByte, err := r.ReadByte()
	if err != nil {
		return group.StateDescriptor{}, err
	}

	name, err := readCString(r)
	if err != nil {
		return group.StateDescriptor{}, fmt.Errorf("wire: reading name: %w", err)
	}
	addr, err := readCString(r)
	if err != nil {
		return group.StateDescriptor{}, fmt.Errorf("wire: reading address: %w", err)
	}

	var protoMin, protoMax int16
	if err := binary.Read(r, binary.LittleEndian, &protoMin); err != nil {
		return group.StateDescriptor{}, err
	}
	if err := binary.Read(r, binary.LittleEndian, &protoMax); err != nil {
		return group.StateDescriptor{}, err
	}

	if err := validateDecoded(group.Status(statusByte), protoMin, protoMax); err != nil {
		return group.StateDescriptor{}, err
	}

	return group.NewStateDescriptor(stateUUID, groupUUID, actID, confID,
		group.Status(statusByte), name, addr, protoMin, protoMax), nil
}

// validateDecoded checks the two range constraints a decoded state message
// must satisfy, independently of one another, and reports both at once
// rather than only the first one encountered.
func validateDecoded(status group.Status, protoMin, protoMax int16) error {
	var statusErr, protoErr error
	if status > group.StatusSynced {
		statusErr = fmt.Errorf("wire: unknown status byte %d", status)
	}
	if protoMin > protoMax {
		protoErr = fmt.Errorf("wire: protocol min %d exceeds protocol max %d", protoMin, protoMax)
	}
	return multierr.Combine(statusErr, protoErr)
}

func readCString(r *bytes.Reader) (string, error) {
	var s []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		if b == 0 {
			break
		}
		s = append(s, b)
	}
	return string(s), nil
}

// EncodeConfigChange gob-encodes a configuration-change action for
// transport over the demo net/rpc dispatcher.
func EncodeConfigChange(a group.ConfigChangeAction) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := gob.NewEncoder(buf).Encode(a); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeConfigChange reverses EncodeConfigChange.
func DecodeConfigChange(data []byte) (group.ConfigChangeAction, error) {
	var a group.ConfigChangeAction
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&a); err != nil {
		return group.ConfigChangeAction{}, err
	}
	return a, nil
}
