package redis

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/MolNetEnhancer/internal/domain/ontology"
	"github.com/turtacn/MolNetEnhancer/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/MolNetEnhancer/pkg/errors"
)

const testTTL = time.Hour

type CacheTestSuite struct {
	suite.Suite
	client *Client
	mock   redismock.ClientMock
	cache  Cache
	cf     *ClassificationCache
	log    logging.Logger
}

func (s *CacheTestSuite) SetupTest() {
	db, mock := redismock.NewClientMock()
	s.mock = mock
	s.log = logging.NewNopLogger()
	s.client = NewClientFromUniversal(db, s.log)
	s.cache = NewRedisCache(s.client, s.log, WithPrefix("test:"), WithJitter(0), WithDefaultTTL(testTTL))
	s.cf = NewClassificationCache(s.cache, 0, s.log)
}

func (s *CacheTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
}

type testStruct struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

func (s *CacheTestSuite) TestGet_CacheHit() {
	val := testStruct{Name: "S1", Size: 3}
	bytes, _ := json.Marshal(val)
	s.mock.ExpectGet("test:key1").SetVal(string(bytes))

	var dest testStruct
	err := s.cache.Get(context.Background(), "key1", &dest)

	assert.NoError(s.T(), err)
	assert.Equal(s.T(), val, dest)
}

func (s *CacheTestSuite) TestGet_CacheMiss() {
	s.mock.ExpectGet("test:key1").RedisNil()

	var dest testStruct
	err := s.cache.Get(context.Background(), "key1", &dest)

	assert.True(s.T(), pkgerrors.IsCode(err, pkgerrors.ErrCodeCacheError))
	assert.Equal(s.T(), ErrCacheMiss, err)
}

func (s *CacheTestSuite) TestGet_NullMarker() {
	s.mock.ExpectGet("test:key1").SetVal(nullMarker)

	var dest testStruct
	err := s.cache.Get(context.Background(), "key1", &dest)

	assert.Equal(s.T(), ErrNullEntry, err)
}

func (s *CacheTestSuite) TestGet_CorruptPayload() {
	s.mock.ExpectGet("test:key1").SetVal("{not json")

	var dest testStruct
	err := s.cache.Get(context.Background(), "key1", &dest)

	assert.True(s.T(), stderrors.Is(err, ErrSerializationFailed))
}

func (s *CacheTestSuite) TestSet_UsesDefaultTTLWithoutJitter() {
	val := testStruct{Name: "S2", Size: 1}
	bytes, _ := json.Marshal(val)
	s.mock.ExpectSet("test:key1", string(bytes), testTTL).SetVal("OK")

	assert.NoError(s.T(), s.cache.Set(context.Background(), "key1", val, 0))
}

func (s *CacheTestSuite) TestDelete() {
	s.mock.ExpectDel("test:a", "test:b").SetVal(2)
	assert.NoError(s.T(), s.cache.Delete(context.Background(), "a", "b"))
	assert.NoError(s.T(), s.cache.Delete(context.Background()))
}

func (s *CacheTestSuite) TestMGet_SkipsMissing() {
	s.mock.ExpectMGet("test:a", "test:b").SetVal([]interface{}{"1", nil})

	got, err := s.cache.MGet(context.Background(), []string{"a", "b"})

	require.NoError(s.T(), err)
	assert.Equal(s.T(), map[string][]byte{"a": []byte("1")}, got)
}

func (s *CacheTestSuite) TestClosedClient() {
	require.NoError(s.T(), s.client.Close())
	assert.NoError(s.T(), s.client.Close())

	var dest testStruct
	err := s.cache.Get(context.Background(), "key1", &dest)
	assert.True(s.T(), stderrors.Is(err, ErrClientClosed))
}

// ─────────────────────────────────────────────────────────────────────────────
// ClassificationCache
// ─────────────────────────────────────────────────────────────────────────────

const inchikey = "BSYNRYMUTXBXSQ-UHFFFAOYSA-N"

func aspirin() ontology.StructureRecord {
	return ontology.NewStructureRecord("CC(=O)OC1=CC=CC=C1C(O)=O", inchikey, map[ontology.Level]string{
		ontology.Kingdom:    "Organic compounds",
		ontology.Superclass: "Benzenoids",
		ontology.Class:      "Benzene and substituted derivatives",
	})
}

func (s *CacheTestSuite) TestClassification_PutClassified() {
	rec := aspirin()
	payload, _ := json.Marshal(cachedRecord{SMILES: rec.SMILES, InChIKey: rec.InChIKey, Classes: rec.Classes})
	s.mock.ExpectSet("test:cf:"+inchikey, string(payload), testTTL).SetVal("OK")

	assert.NoError(s.T(), s.cf.Put(context.Background(), ontology.NewClassified(inchikey, rec)))
}

func (s *CacheTestSuite) TestClassification_PutFailureIsCacheError() {
	rec := aspirin()
	payload, _ := json.Marshal(cachedRecord{SMILES: rec.SMILES, InChIKey: rec.InChIKey, Classes: rec.Classes})
	s.mock.ExpectSet("test:cf:"+inchikey, string(payload), testTTL).SetErr(stderrors.New("connection reset"))

	err := s.cf.Put(context.Background(), ontology.NewClassified(inchikey, rec))
	require.Error(s.T(), err)
	assert.True(s.T(), pkgerrors.IsCode(err, pkgerrors.CodeCacheError))
	assert.Contains(s.T(), err.Error(), inchikey)
}

func (s *CacheTestSuite) TestClassification_PutUnclassifiedStoresNull() {
	s.mock.ExpectSet("test:cf:"+inchikey, nullMarker, testTTL).SetVal("OK")

	assert.NoError(s.T(), s.cf.Put(context.Background(), ontology.NewUnclassified(inchikey)))
}

func (s *CacheTestSuite) TestClassification_PutLookupFailedIsIgnored() {
	assert.NoError(s.T(), s.cf.Put(context.Background(), ontology.NewLookupFailed(inchikey, "timeout")))
}

func (s *CacheTestSuite) TestClassification_GetHit() {
	rec := aspirin()
	payload, _ := json.Marshal(cachedRecord{SMILES: rec.SMILES, InChIKey: rec.InChIKey, Classes: rec.Classes})
	s.mock.ExpectGet("test:cf:" + inchikey).SetVal(string(payload))

	got, ok, err := s.cf.Get(context.Background(), inchikey)

	require.NoError(s.T(), err)
	require.True(s.T(), ok)
	assert.Equal(s.T(), ontology.StatusClassified, got.Status)
	assert.Equal(s.T(), rec, got.Record)
}

func (s *CacheTestSuite) TestClassification_GetNullIsUnclassified() {
	s.mock.ExpectGet("test:cf:" + inchikey).SetVal(nullMarker)

	got, ok, err := s.cf.Get(context.Background(), inchikey)

	require.NoError(s.T(), err)
	require.True(s.T(), ok)
	assert.Equal(s.T(), ontology.StatusUnclassified, got.Status)
}

func (s *CacheTestSuite) TestClassification_GetMiss() {
	s.mock.ExpectGet("test:cf:" + inchikey).RedisNil()

	_, ok, err := s.cf.Get(context.Background(), inchikey)

	require.NoError(s.T(), err)
	assert.False(s.T(), ok)
}

func (s *CacheTestSuite) TestClassification_GetMany() {
	rec := aspirin()
	payload, _ := json.Marshal(cachedRecord{SMILES: rec.SMILES, InChIKey: rec.InChIKey, Classes: rec.Classes})
	s.mock.ExpectMGet("test:cf:"+inchikey, "test:cf:K2", "test:cf:K3", "test:cf:K4").
		SetVal([]interface{}{string(payload), nullMarker, nil, "garbage"})

	got, err := s.cf.GetMany(context.Background(), []string{inchikey, "K2", "K3", "K4"})

	require.NoError(s.T(), err)
	require.Len(s.T(), got, 2)
	assert.Equal(s.T(), ontology.StatusClassified, got[inchikey].Status)
	assert.Equal(s.T(), ontology.StatusUnclassified, got["K2"].Status)
}

func TestCacheTestSuite(t *testing.T) {
	suite.Run(t, new(CacheTestSuite))
}

func TestTTL_JitterStaysInBounds(t *testing.T) {
	c := &redisCache{defaultTTL: 100 * time.Second, jitter: 0.1}
	for i := 0; i < 100; i++ {
		got := c.ttl(0)
		assert.GreaterOrEqual(t, got, 90*time.Second)
		assert.LessOrEqual(t, got, 110*time.Second)
	}
}
