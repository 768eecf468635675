package world

import "sync"

// BlockStorage provides persistent storage for chunk columns.
type BlockStorage interface {
	LoadColumn(index int) ([]Block, bool, error)
	SaveColumn(index int, blocks []Block) error
	Delete(index int) error
	ForEach(fn func(index int, blocks []Block) bool) error
	Close() error
}

// StorageProvider creates block storage instances for chunks.
type StorageProvider interface {
	NewStorage(key ChunkPos) (BlockStorage, error)
}

var (
	storageProvider StorageProvider = newMemoryStorageProvider()
	storageMu       sync.RWMutex
)

// SetStorageProvider overrides the global storage provider used for new chunks.
func SetStorageProvider(provider StorageProvider) {
	storageMu.Lock()
	storageProvider = provider
	storageMu.Unlock()
}

// NewMemoryStorageProvider keeps chunk columns in process memory. Storage
// handed out for the same chunk key is shared, so a chunk rebuilt for a key
// sees what was written before.
func NewMemoryStorageProvider() StorageProvider {
	return newMemoryStorageProvider()
}

func getStorageProvider() StorageProvider {
	storageMu.RLock()
	provider := storageProvider
	storageMu.RUnlock()
	return provider
}

type memoryStorageProvider struct {
	mu     sync.Mutex
	stores map[ChunkPos]*memoryBlockStorage
}

func newMemoryStorageProvider() *memoryStorageProvider {
	return &memoryStorageProvider{stores: make(map[ChunkPos]*memoryBlockStorage)}
}

func (p *memoryStorageProvider) NewStorage(key ChunkPos) (BlockStorage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if store, ok := p.stores[key]; ok {
		return store, nil
	}
	store := &memoryBlockStorage{columns: make(map[int][]Block)}
	p.stores[key] = store
	return store, nil
}

type memoryBlockStorage struct {
	mu      sync.RWMutex
	columns map[int][]Block
}

func cloneColumn(blocks []Block) []Block {
	dup := make([]Block, len(blocks))
	copy(dup, blocks)
	return dup
}

func (m *memoryBlockStorage) LoadColumn(index int) ([]Block, bool, error) {
	m.mu.RLock()
	blocks, ok := m.columns[index]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	return cloneColumn(blocks), true, nil
}

func (m *memoryBlockStorage) SaveColumn(index int, blocks []Block) error {
	dup := cloneColumn(blocks)
	m.mu.Lock()
	m.columns[index] = dup
	m.mu.Unlock()
	return nil
}

func (m *memoryBlockStorage) Delete(index int) error {
	m.mu.Lock()
	delete(m.columns, index)
	m.mu.Unlock()
	return nil
}

func (m *memoryBlockStorage) ForEach(fn func(index int, blocks []Block) bool) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for idx, blocks := range m.columns {
		if !fn(idx, cloneColumn(blocks)) {
			break
		}
	}
	return nil
}

// Close is a no-op; the provider owns the columns.
func (m *memoryBlockStorage) Close() error {
	return nil
}
