// Package savegame stores a level on disk: a fixed header followed by the
// msgpack encoded visit tree.
//
// Layout (little endian):
//
//	magic    [4]byte  "ARNA"
//	version  uint16
//	match id [16]byte
//	checksum [32]byte blake2b-256 of the payload
//	size     uint32   payload length
//	payload  [size]byte
package savegame

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/crypto/blake2b"

	"github.com/fragcore/arena/internal/data"
	"github.com/fragcore/arena/internal/level"
	"github.com/fragcore/arena/internal/visit"
)

const (
	Magic   = "ARNA"
	Version = 1

	headerSize = 4 + 2 + 16 + blake2b.Size256 + 4
	// maxPayload guards against allocating for a corrupt size field.
	maxPayload = 64 << 20
	rootRegion = "Level"
)

var (
	ErrBadMagic  = errors.New("savegame: bad magic")
	ErrVersion   = errors.New("savegame: unsupported version")
	ErrChecksum  = errors.New("savegame: checksum mismatch")
	ErrTruncated = errors.New("savegame: truncated")
)

// Header is the fixed prefix of a save.
type Header struct {
	Version  uint16
	MatchID  uuid.UUID
	Checksum [blake2b.Size256]byte
	Size     uint32
}

func (h Header) marshal() []byte {
	buf := make([]byte, headerSize)
	copy(buf[0:4], Magic)
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	copy(buf[6:22], h.MatchID[:])
	copy(buf[22:54], h.Checksum[:])
	binary.LittleEndian.PutUint32(buf[54:58], h.Size)
	return buf
}

func parseHeader(buf []byte) (Header, error) {
	var h Header
	if string(buf[0:4]) != Magic {
		return h, ErrBadMagic
	}
	h.Version = binary.LittleEndian.Uint16(buf[4:6])
	if h.Version != Version {
		return h, fmt.Errorf("%w: %d", ErrVersion, h.Version)
	}
	copy(h.MatchID[:], buf[6:22])
	copy(h.Checksum[:], buf[22:54])
	h.Size = binary.LittleEndian.Uint32(buf[54:58])
	if h.Size > maxPayload {
		return h, fmt.Errorf("savegame: payload of %d bytes exceeds limit", h.Size)
	}
	return h, nil
}

// Encode writes the visit tree rooted at root.
func Encode(w io.Writer, root *visit.Node, matchID uuid.UUID) error {
	payload, err := msgpack.Marshal(root)
	if err != nil {
		return fmt.Errorf("savegame: encode: %w", err)
	}
	h := Header{
		Version:  Version,
		MatchID:  matchID,
		Checksum: blake2b.Sum256(payload),
		Size:     uint32(len(payload)),
	}
	if _, err := w.Write(h.marshal()); err != nil {
		return fmt.Errorf("savegame: write header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("savegame: write payload: %w", err)
	}
	return nil
}

// Decode validates a save and returns its header and visit tree.
func Decode(r io.Reader) (Header, *visit.Node, error) {
	buf := make([]byte, headerSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Header{}, nil, fmt.Errorf("%w: header: %v", ErrTruncated, err)
	}
	h, err := parseHeader(buf)
	if err != nil {
		return h, nil, err
	}
	payload := make([]byte, h.Size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return h, nil, fmt.Errorf("%w: payload: %v", ErrTruncated, err)
	}
	if blake2b.Sum256(payload) != h.Checksum {
		return h, nil, ErrChecksum
	}
	var root visit.Node
	if err := msgpack.Unmarshal(payload, &root); err != nil {
		return h, nil, fmt.Errorf("savegame: decode: %w", err)
	}
	return h, &root, nil
}

// Save writes l tagged with matchID.
func Save(w io.Writer, l *level.Level, matchID uuid.UUID) error {
	v := visit.NewWriter()
	if err := l.Visit(v, rootRegion); err != nil {
		return fmt.Errorf("savegame: visit level: %w", err)
	}
	return Encode(w, v.Root(), matchID)
}

// Load reads a save into a new level attached to env. The caller's current
// level is never touched; on error the returned level is nil.
func Load(r io.Reader, defs *data.Definitions, arena *data.ArenaMap, env level.Env, queueSize int) (*level.Level, uuid.UUID, error) {
	h, root, err := Decode(r)
	if err != nil {
		return nil, uuid.Nil, err
	}
	l, err := level.Load(visit.NewReader(root), rootRegion, defs, arena, env, queueSize)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("savegame: restore level: %w", err)
	}
	return l, h.MatchID, nil
}

// SaveFile writes the save next to path first and renames it into place so
// a crash never leaves a half written file behind.
func SaveFile(path string, l *level.Level, matchID uuid.UUID) error {
	var buf bytes.Buffer
	if err := Save(&buf, l, matchID); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("savegame: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("savegame: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("savegame: %w", err)
	}
	return nil
}

func LoadFile(path string, defs *data.Definitions, arena *data.ArenaMap, env level.Env, queueSize int) (*level.Level, uuid.UUID, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("savegame: %w", err)
	}
	defer f.Close()
	return Load(f, defs, arena, env, queueSize)
}
