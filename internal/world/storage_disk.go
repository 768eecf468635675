package world

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/klauspost/compress/zstd"
)

const (
	diskOpDelete byte = 0
	diskOpSet    byte = 1

	diskHeaderSize = 9

	columnEncodingVersion = 1
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

var (
	codecOnce  sync.Once
	codecErr   error
	zstdWriter *zstd.Encoder
	zstdReader *zstd.Decoder
)

// EncodeAll and DecodeAll are safe for concurrent use, so one pair serves
// every chunk file.
func columnCodec() (*zstd.Encoder, *zstd.Decoder, error) {
	codecOnce.Do(func() {
		zstdWriter, codecErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if codecErr != nil {
			return
		}
		zstdReader, codecErr = zstd.NewReader(nil)
	})
	return zstdWriter, zstdReader, codecErr
}

// blockRun is a run of identical blocks in a column.
type blockRun struct {
	Block Block
	Count int
}

type columnEncoding struct {
	Version int
	Runs    []blockRun
}

func compressColumn(blocks []Block) []blockRun {
	var runs []blockRun
	for _, block := range blocks {
		if n := len(runs); n > 0 && runs[n-1].Block == block {
			runs[n-1].Count++
			continue
		}
		runs = append(runs, blockRun{Block: block, Count: 1})
	}
	return runs
}

func expandColumn(runs []blockRun) []Block {
	total := 0
	for _, run := range runs {
		total += run.Count
	}
	blocks := make([]Block, 0, total)
	for _, run := range runs {
		for i := 0; i < run.Count; i++ {
			blocks = append(blocks, run.Block)
		}
	}
	return blocks
}

func encodeColumnPayload(blocks []Block) ([]byte, error) {
	var raw bytes.Buffer
	encoding := columnEncoding{Version: columnEncodingVersion, Runs: compressColumn(blocks)}
	if err := gob.NewEncoder(&raw).Encode(&encoding); err != nil {
		return nil, fmt.Errorf("encode column: %w", err)
	}
	enc, _, err := columnCodec()
	if err != nil {
		return nil, fmt.Errorf("init zstd: %w", err)
	}
	return enc.EncodeAll(raw.Bytes(), nil), nil
}

// decodeColumnPayload accepts compressed run encodings and the older plain
// gob []Block payloads.
func decodeColumnPayload(payload []byte) ([]Block, error) {
	if !bytes.HasPrefix(payload, zstdMagic) {
		var blocks []Block
		if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&blocks); err != nil {
			return nil, fmt.Errorf("decode legacy column: %w", err)
		}
		return blocks, nil
	}
	_, dec, err := columnCodec()
	if err != nil {
		return nil, fmt.Errorf("init zstd: %w", err)
	}
	raw, err := dec.DecodeAll(payload, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress column: %w", err)
	}
	var encoding columnEncoding
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&encoding); err != nil {
		return nil, fmt.Errorf("decode column: %w", err)
	}
	if encoding.Version != columnEncodingVersion {
		return nil, fmt.Errorf("unsupported column encoding version %d", encoding.Version)
	}
	return expandColumn(encoding.Runs), nil
}

type DiskStorageProvider struct {
	basePath string
}

// NewDiskStorageProvider creates a provider that persists chunk data beneath basePath.
func NewDiskStorageProvider(basePath string) *DiskStorageProvider {
	return &DiskStorageProvider{basePath: basePath}
}

func (p *DiskStorageProvider) NewStorage(key ChunkPos) (BlockStorage, error) {
	path := p.chunkPath(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create chunk directory: %w", err)
	}
	return newDiskBlockStorage(path)
}

func (p *DiskStorageProvider) chunkPath(key ChunkPos) string {
	dir := filepath.Join(p.basePath, strconv.Itoa(key.X))
	return filepath.Join(dir, fmt.Sprintf("chunk_%d.bin", key.Z))
}

type diskRecordMeta struct {
	offset int64
	size   uint32
}

// diskBlockStorage is an append-only log of column records; the latest record
// for an index wins.
type diskBlockStorage struct {
	file    *os.File
	mu      sync.RWMutex
	records map[int]diskRecordMeta
}

func newDiskBlockStorage(path string) (*diskBlockStorage, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open chunk file: %w", err)
	}
	storage := &diskBlockStorage{
		file:    f,
		records: make(map[int]diskRecordMeta),
	}
	if err := storage.loadIndex(); err != nil {
		f.Close()
		return nil, err
	}
	return storage, nil
}

func (s *diskBlockStorage) loadIndex() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind chunk file: %w", err)
	}

	header := make([]byte, diskHeaderSize)
	var offset int64
	for {
		if _, err := io.ReadFull(s.file, header); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return fmt.Errorf("truncated chunk header: %w", err)
			}
			return fmt.Errorf("read chunk header: %w", err)
		}
		op := header[0]
		index := int(binary.LittleEndian.Uint32(header[1:5]))
		size := binary.LittleEndian.Uint32(header[5:9])
		recordOffset := offset
		offset += int64(len(header)) + int64(size)

		if _, err := s.file.Seek(int64(size), io.SeekCurrent); err != nil {
			return fmt.Errorf("seek past payload: %w", err)
		}
		if op == diskOpSet {
			s.records[index] = diskRecordMeta{offset: recordOffset, size: size}
		} else {
			delete(s.records, index)
		}
	}

	return nil
}

func (s *diskBlockStorage) LoadColumn(index int) ([]Block, bool, error) {
	s.mu.RLock()
	meta, ok := s.records[index]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	payload := make([]byte, meta.size)
	if _, err := s.file.ReadAt(payload, meta.offset+diskHeaderSize); err != nil {
		return nil, false, fmt.Errorf("read payload at %d: %w", meta.offset, err)
	}
	blocks, err := decodeColumnPayload(payload)
	if err != nil {
		return nil, false, err
	}
	return blocks, true, nil
}

func (s *diskBlockStorage) SaveColumn(index int, blocks []Block) error {
	payload, err := encodeColumnPayload(blocks)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	offset, err := s.appendRecord(diskOpSet, index, payload)
	if err != nil {
		return err
	}
	s.records[index] = diskRecordMeta{offset: offset, size: uint32(len(payload))}
	return nil
}

func (s *diskBlockStorage) Delete(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.appendRecord(diskOpDelete, index, nil); err != nil {
		return err
	}
	delete(s.records, index)
	return nil
}

// appendRecord must be called with s.mu held.
func (s *diskBlockStorage) appendRecord(op byte, index int, payload []byte) (int64, error) {
	header := make([]byte, diskHeaderSize)
	header[0] = op
	binary.LittleEndian.PutUint32(header[1:5], uint32(index))
	binary.LittleEndian.PutUint32(header[5:9], uint32(len(payload)))

	offset, err := s.file.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("seek chunk end: %w", err)
	}
	if _, err := s.file.Write(header); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}
	if len(payload) > 0 {
		if _, err := s.file.Write(payload); err != nil {
			return 0, fmt.Errorf("write payload: %w", err)
		}
	}
	return offset, nil
}

func (s *diskBlockStorage) ForEach(fn func(index int, blocks []Block) bool) error {
	s.mu.RLock()
	indices := make([]int, 0, len(s.records))
	for idx := range s.records {
		indices = append(indices, idx)
	}
	s.mu.RUnlock()

	sort.Ints(indices)
	for _, idx := range indices {
		blocks, ok, err := s.LoadColumn(idx)
		if err != nil {
			log.Printf("disk block storage load index %d: %v", idx, err)
			continue
		}
		if !ok {
			continue
		}
		if !fn(idx, blocks) {
			break
		}
	}
	return nil
}

func (s *diskBlockStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.file.Sync(); err != nil {
		s.file.Close()
		return fmt.Errorf("sync chunk file: %w", err)
	}
	return s.file.Close()
}
