// Package store holds the vector index and its chunk metadata as one
// owning structure. Vectors and records are parallel sequences indexed
// by a dense vector id; only joint append, search and persistence are
// exposed, so the two can never diverge.
package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sort"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"pdfqa/internal/domain"
)

const schemaVersion uint64 = 1

var (
	bucketVectors = []byte("vectors")
	bucketRecords = []byte("records")
	bucketDocs    = []byte("documents")
	bucketMeta    = []byte("meta")

	keyVersion   = []byte("schema_version")
	keyDimension = []byte("dimension")
	keyCount     = []byte("count")
)

// VectorIndex is the single logical index shared by all operations.
// Searches run concurrently under a read lock; append (which persists in
// the same call) excludes searches and other appends. Provider calls
// never happen under the lock: vectors arrive precomputed.
type VectorIndex struct {
	db        *bbolt.DB
	dimension int
	logger    *log.Logger

	mu      sync.RWMutex
	vectors [][]float32
	records []domain.ChunkRecord
	docs    map[string]domain.Document
}

// Open opens (or creates) the index database at path. A missing file
// starts an empty index. An unreadable or misaligned snapshot is wiped
// and replaced with an empty index: logged as severe, never fatal.
func Open(path string, dimension int, logger *log.Logger) (*VectorIndex, error) {
	if logger == nil {
		logger = log.Default()
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open index db: %w", err)
	}

	idx := &VectorIndex{
		db:        db,
		dimension: dimension,
		logger:    logger,
		docs:      make(map[string]domain.Document),
	}

	if err := idx.ensureBuckets(); err != nil {
		db.Close()
		return nil, err
	}

	if err := idx.load(); err != nil {
		idx.logger.Printf("SEVERE: persisted index unusable (%v), rebuilding empty", err)
		if wipeErr := idx.wipe(); wipeErr != nil {
			db.Close()
			return nil, fmt.Errorf("failed to rebuild index: %w", wipeErr)
		}
	}

	return idx, nil
}

func (s *VectorIndex) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketVectors, bucketRecords, bucketDocs, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}

		meta := tx.Bucket(bucketMeta)
		if meta.Get(keyVersion) == nil {
			if err := meta.Put(keyVersion, encodeUint64(schemaVersion)); err != nil {
				return err
			}
			if err := meta.Put(keyDimension, encodeUint64(uint64(s.dimension))); err != nil {
				return err
			}
			if err := meta.Put(keyCount, encodeUint64(0)); err != nil {
				return err
			}
		}
		return nil
	})
}

// load restores vectors and records from the snapshot and verifies the
// alignment invariant. Any inconsistency is reported as index
// corruption.
func (s *VectorIndex) load() error {
	return s.db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)

		if v := decodeUint64(meta.Get(keyVersion)); v != schemaVersion {
			return fmt.Errorf("%w: snapshot schema version %d, expected %d",
				domain.ErrIndexCorrupt, v, schemaVersion)
		}
		if d := decodeUint64(meta.Get(keyDimension)); d != uint64(s.dimension) {
			return fmt.Errorf("%w: snapshot dimension %d, configured %d",
				domain.ErrIndexCorrupt, d, s.dimension)
		}
		count := decodeUint64(meta.Get(keyCount))

		vectors := make([][]float32, 0, count)
		records := make([]domain.ChunkRecord, 0, count)

		vb := tx.Bucket(bucketVectors)
		rb := tx.Bucket(bucketRecords)

		vc := vb.Cursor()
		for k, v := vc.First(); k != nil; k, v = vc.Next() {
			id := decodeUint64(k)
			if id != uint64(len(vectors)) {
				return fmt.Errorf("%w: vector ids not dense at %d", domain.ErrIndexCorrupt, id)
			}

			var vector []float32
			if err := json.Unmarshal(v, &vector); err != nil {
				return fmt.Errorf("%w: unreadable vector %d: %v", domain.ErrIndexCorrupt, id, err)
			}
			if len(vector) != s.dimension {
				return fmt.Errorf("%w: vector %d has dimension %d, expected %d",
					domain.ErrIndexCorrupt, id, len(vector), s.dimension)
			}

			data := rb.Get(k)
			if data == nil {
				return fmt.Errorf("%w: vector %d has no metadata record", domain.ErrIndexCorrupt, id)
			}
			var record domain.ChunkRecord
			if err := json.Unmarshal(data, &record); err != nil {
				return fmt.Errorf("%w: unreadable record %d: %v", domain.ErrIndexCorrupt, id, err)
			}

			vectors = append(vectors, vector)
			records = append(records, record)
		}

		if rb.Stats().KeyN != len(records) {
			return fmt.Errorf("%w: %d records for %d vectors", domain.ErrIndexCorrupt, rb.Stats().KeyN, len(records))
		}
		if count != uint64(len(vectors)) {
			return fmt.Errorf("%w: snapshot counter %d, found %d vectors",
				domain.ErrIndexCorrupt, count, len(vectors))
		}

		docs := make(map[string]domain.Document)
		err := tx.Bucket(bucketDocs).ForEach(func(k, v []byte) error {
			var doc domain.Document
			if err := json.Unmarshal(v, &doc); err != nil {
				return fmt.Errorf("%w: unreadable document %s: %v", domain.ErrIndexCorrupt, k, err)
			}
			docs[doc.ID] = doc
			return nil
		})
		if err != nil {
			return err
		}

		s.mu.Lock()
		s.vectors = vectors
		s.records = records
		s.docs = docs
		s.mu.Unlock()

		return nil
	})
}

// wipe drops all persisted and in-memory state, leaving a valid empty
// index.
func (s *VectorIndex) wipe() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketVectors, bucketRecords, bucketDocs, bucketMeta} {
			if tx.Bucket(b) != nil {
				if err := tx.DeleteBucket(b); err != nil {
					return err
				}
			}
			if _, err := tx.CreateBucket(b); err != nil {
				return err
			}
		}

		meta := tx.Bucket(bucketMeta)
		if err := meta.Put(keyVersion, encodeUint64(schemaVersion)); err != nil {
			return err
		}
		if err := meta.Put(keyDimension, encodeUint64(uint64(s.dimension))); err != nil {
			return err
		}
		return meta.Put(keyCount, encodeUint64(0))
	})
	if err != nil {
		return err
	}

	s.vectors = nil
	s.records = nil
	s.docs = make(map[string]domain.Document)
	return nil
}

// AppendDocument appends the document's vectors and their metadata
// records at the next dense vector-id range and persists everything in
// one transaction. Returns the first assigned vector id. A length or
// dimension mismatch between vectors and records is a programming
// error.
func (s *VectorIndex) AppendDocument(doc domain.Document, records []domain.ChunkRecord, vectors [][]float32) (int, error) {
	if len(records) != len(vectors) {
		panic(fmt.Sprintf("store: %d records for %d vectors", len(records), len(vectors)))
	}
	for i, v := range vectors {
		if len(v) != s.dimension {
			panic(fmt.Sprintf("store: vector %d has dimension %d, index dimension is %d", i, len(v), s.dimension))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	firstID := len(s.vectors)

	err := s.db.Update(func(tx *bbolt.Tx) error {
		vb := tx.Bucket(bucketVectors)
		rb := tx.Bucket(bucketRecords)

		for i := range vectors {
			key := encodeUint64(uint64(firstID + i))

			vData, err := json.Marshal(vectors[i])
			if err != nil {
				return err
			}
			if err := vb.Put(key, vData); err != nil {
				return err
			}

			rData, err := json.Marshal(records[i])
			if err != nil {
				return err
			}
			if err := rb.Put(key, rData); err != nil {
				return err
			}
		}

		dData, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketDocs).Put([]byte(doc.ID), dData); err != nil {
			return err
		}

		return tx.Bucket(bucketMeta).Put(keyCount, encodeUint64(uint64(firstID+len(vectors))))
	})
	if err != nil {
		return 0, fmt.Errorf("failed to persist document %s: %w", doc.ID, err)
	}

	s.vectors = append(s.vectors, vectors...)
	s.records = append(s.records, records...)
	s.docs[doc.ID] = doc

	return firstID, nil
}

// Search returns up to k entries ranked by descending cosine
// similarity, excluding entries below threshold and, when docFilter is
// non-empty, entries from other documents. Ties on score go to the
// lower vector id.
func (s *VectorIndex) Search(query []float32, k int, threshold float64, docFilter string) ([]domain.Retrieved, error) {
	if len(query) != s.dimension {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", s.dimension, len(query))
	}
	if k <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]domain.Retrieved, 0, len(s.vectors))
	for id, vector := range s.vectors {
		record := s.records[id]
		if docFilter != "" && record.DocumentID != docFilter {
			continue
		}

		score := cosineSimilarity(query, vector)
		if score < threshold {
			continue
		}

		results = append(results, domain.Retrieved{
			VectorID: id,
			Score:    score,
			Record:   record,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].VectorID < results[j].VectorID
	})

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// Lookup returns the chunk record at the given vector id, or
// domain.ErrNotFound for a stale id.
func (s *VectorIndex) Lookup(vectorID int) (domain.ChunkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if vectorID < 0 || vectorID >= len(s.records) {
		return domain.ChunkRecord{}, fmt.Errorf("%w: vector id %d", domain.ErrNotFound, vectorID)
	}
	return s.records[vectorID], nil
}

// Documents lists per-document summaries, oldest first.
func (s *VectorIndex) Documents() []domain.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]domain.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].UploadedAt.Equal(docs[j].UploadedAt) {
			return docs[i].UploadedAt.Before(docs[j].UploadedAt)
		}
		return docs[i].ID < docs[j].ID
	})
	return docs
}

// Len returns the number of stored vectors (equal to the number of
// metadata records).
func (s *VectorIndex) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}

// DocumentCount returns the number of ingested documents.
func (s *VectorIndex) DocumentCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Reset removes every document, record and vector, persisting the empty
// state.
func (s *VectorIndex) Reset() error {
	return s.wipe()
}

// Close closes the underlying database.
func (s *VectorIndex) Close() error {
	return s.db.Close()
}

// cosineSimilarity calculates the cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

func encodeUint64(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

func decodeUint64(b []byte) uint64 {
	if len(b) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}
