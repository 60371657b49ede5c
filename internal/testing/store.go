package testing

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/desertthunder/dclone/internal/models"
)

// RootID is the parent used when a copy is made without a parent.
const RootID = "root"

// MemoryStore is an in-memory remote store tree with injectable failures.
//
// Operation names used by FailOn and Calls are "get", "list", "copy" (keyed by source id),
// and "create" (keyed by folder name).
type MemoryStore struct {
	mu       sync.Mutex
	nodes    map[string]models.Node
	children map[string][]string
	failures map[string]error
	calls    []string
	nextID   int

	// BeforeCall runs before every operation, outside the store lock.
	BeforeCall func(op, key string)
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nodes:    map[string]models.Node{},
		children: map[string][]string{},
		failures: map[string]error{},
	}
}

// AddFolder adds a folder under parentID. An empty parentID makes a top-level item.
func (m *MemoryStore) AddFolder(id, name, parentID string) *MemoryStore {
	m.add(models.Node{ID: id, Name: name, Kind: models.KindFolder, MimeType: models.FolderMimeType}, parentID)
	return m
}

// AddFile adds a file under parentID.
func (m *MemoryStore) AddFile(id, name, parentID string, size int64) *MemoryStore {
	m.add(models.Node{ID: id, Name: name, Kind: models.KindFile, MimeType: "text/plain", Size: &size}, parentID)
	return m
}

func (m *MemoryStore) add(n models.Node, parentID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if parentID != "" {
		n.ParentIDs = []string{parentID}
		m.children[parentID] = append(m.children[parentID], n.ID)
	}
	m.nodes[n.ID] = n
}

// FailOn makes op on key return err until cleared with a nil err.
func (m *MemoryStore) FailOn(op, key string, err error) *MemoryStore {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err == nil {
		delete(m.failures, op+":"+key)
	} else {
		m.failures[op+":"+key] = err
	}
	return m
}

// Calls returns every "op:key" seen so far, in order.
func (m *MemoryStore) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// Node returns a stored node by id.
func (m *MemoryStore) Node(id string) (models.Node, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.nodes[id]
	return n, ok
}

// ChildNames returns the names of the children of parentID, in order. Copies made without a parent live under [RootID].
func (m *MemoryStore) ChildNames(parentID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := []string{}
	for _, id := range m.children[parentID] {
		names = append(names, m.nodes[id].Name)
	}
	return names
}

// ChildByName finds a child of parentID by name.
func (m *MemoryStore) ChildByName(parentID, name string) (models.Node, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range m.children[parentID] {
		if n := m.nodes[id]; n.Name == name {
			return n, true
		}
	}
	return models.Node{}, false
}

func (m *MemoryStore) enter(op, key string) error {
	if m.BeforeCall != nil {
		m.BeforeCall(op, key)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, op+":"+key)
	return m.failures[op+":"+key]
}

func (m *MemoryStore) GetMetadata(ctx context.Context, id string) (*models.Node, error) {
	if err := m.enter("get", id); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.nodes[id]
	if !ok {
		return nil, fmt.Errorf("get %s: not found", id)
	}
	return &n, nil
}

func (m *MemoryStore) ListChildren(ctx context.Context, folderID string) ([]models.Node, error) {
	if err := m.enter("list", folderID); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	nodes := []models.Node{}
	for _, id := range m.children[folderID] {
		nodes = append(nodes, m.nodes[id])
	}
	return nodes, nil
}

func (m *MemoryStore) CopyFile(ctx context.Context, id, name, parentID string) (*models.Node, error) {
	if err := m.enter("copy", id); err != nil {
		return nil, err
	}

	m.mu.Lock()
	src, ok := m.nodes[id]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("copy %s: not found", id)
	}

	src.ID = ""
	src.Name = name
	return m.insert(src, parentID), nil
}

func (m *MemoryStore) CreateFolder(ctx context.Context, name, parentID string) (*models.Node, error) {
	if err := m.enter("create", name); err != nil {
		return nil, err
	}
	return m.insert(models.Node{Name: name, Kind: models.KindFolder, MimeType: models.FolderMimeType}, parentID), nil
}

func (m *MemoryStore) insert(n models.Node, parentID string) *models.Node {
	m.mu.Lock()
	defer m.mu.Unlock()

	if parentID == "" {
		parentID = RootID
	}
	m.nextID++
	n.ID = fmt.Sprintf("new-%d", m.nextID)
	n.ParentIDs = []string{parentID}
	m.nodes[n.ID] = n
	m.children[parentID] = append(m.children[parentID], n.ID)
	return &n
}
