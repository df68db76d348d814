package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/suite"

	"github.com/signalsfoundry/indoor-coverage-sim/core"
	"github.com/signalsfoundry/indoor-coverage-sim/internal/clock"
	redisclient "github.com/signalsfoundry/indoor-coverage-sim/internal/redis"
)

// stepClock advances one second per call so records get distinct times.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func testSummary(meanSIR float64) *core.Summary {
	return &core.Summary{
		TotalCells: 4,
		Categories: []core.CategoryShare{
			{Name: "Excellent", Count: 3, Percent: 75},
			{Name: "Poor", Count: 1, Percent: 25},
		},
		MeanBestDBm: -55,
		MeanSIRDB:   meanSIR,
		Servers:     []core.APShare{{APID: "AP1", Cells: 4, Percent: 100}},
	}
}

// repositoryContract exercises behaviour every Repository must share.
type repositoryContract struct {
	suite.Suite
	ctx  context.Context
	repo Repository
}

func (s *repositoryContract) TestSaveAndGet() {
	saved, err := s.repo.Save(s.ctx, SaveInput{
		DeploymentID: "office",
		Duration:     250 * time.Millisecond,
		Summary:      testSummary(12),
	})
	s.Require().NoError(err)
	s.NotEmpty(saved.Record.ID)
	s.Equal("office", saved.Record.DeploymentID)

	got, err := s.repo.Get(s.ctx, GetInput{ID: saved.Record.ID})
	s.Require().NoError(err)
	s.Equal(saved.Record.ID, got.Record.ID)
	s.Equal(250*time.Millisecond, got.Record.Duration)
	s.Equal(12.0, got.Record.Summary.MeanSIRDB)
	s.Equal(75.0, got.Record.Summary.Categories[0].Percent)
	s.True(saved.Record.CreatedAt.Equal(got.Record.CreatedAt))
}

func (s *repositoryContract) TestGetMissing() {
	_, err := s.repo.Get(s.ctx, GetInput{ID: "does-not-exist"})
	s.ErrorIs(err, ErrNotFound)

	_, err = s.repo.Get(s.ctx, GetInput{})
	s.ErrorIs(err, ErrInvalidArgument)
}

func (s *repositoryContract) TestSaveValidation() {
	testCases := []struct {
		name  string
		input SaveInput
	}{
		{name: "missing deployment", input: SaveInput{Summary: testSummary(0)}},
		{name: "missing summary", input: SaveInput{DeploymentID: "office"}},
	}
	for _, tc := range testCases {
		s.Run(tc.name, func() {
			_, err := s.repo.Save(s.ctx, tc.input)
			s.ErrorIs(err, ErrInvalidArgument)
		})
	}
}

func (s *repositoryContract) TestListNewestFirstWithLimit() {
	var ids []string
	for i := 0; i < 3; i++ {
		out, err := s.repo.Save(s.ctx, SaveInput{DeploymentID: "lab", Summary: testSummary(float64(i))})
		s.Require().NoError(err)
		ids = append(ids, out.Record.ID)
	}
	_, err := s.repo.Save(s.ctx, SaveInput{DeploymentID: "other", Summary: testSummary(0)})
	s.Require().NoError(err)

	all, err := s.repo.ListByDeployment(s.ctx, ListInput{DeploymentID: "lab"})
	s.Require().NoError(err)
	s.Require().Len(all.Records, 3)
	s.Equal(ids[2], all.Records[0].ID)
	s.Equal(ids[0], all.Records[2].ID)

	limited, err := s.repo.ListByDeployment(s.ctx, ListInput{DeploymentID: "lab", Limit: 2})
	s.Require().NoError(err)
	s.Require().Len(limited.Records, 2)
	s.Equal(ids[2], limited.Records[0].ID)

	empty, err := s.repo.ListByDeployment(s.ctx, ListInput{DeploymentID: "nobody"})
	s.Require().NoError(err)
	s.Empty(empty.Records)
}

func (s *repositoryContract) TestDeleteByDeployment() {
	var ids []string
	for i := 0; i < 2; i++ {
		out, err := s.repo.Save(s.ctx, SaveInput{DeploymentID: "gone", Summary: testSummary(0)})
		s.Require().NoError(err)
		ids = append(ids, out.Record.ID)
	}
	kept, err := s.repo.Save(s.ctx, SaveInput{DeploymentID: "kept", Summary: testSummary(0)})
	s.Require().NoError(err)

	out, err := s.repo.DeleteByDeployment(s.ctx, DeleteByDeploymentInput{DeploymentID: "gone"})
	s.Require().NoError(err)
	s.Equal(2, out.Deleted)

	for _, id := range ids {
		_, err := s.repo.Get(s.ctx, GetInput{ID: id})
		s.ErrorIs(err, ErrNotFound)
	}
	_, err = s.repo.Get(s.ctx, GetInput{ID: kept.Record.ID})
	s.NoError(err)

	again, err := s.repo.DeleteByDeployment(s.ctx, DeleteByDeploymentInput{DeploymentID: "gone"})
	s.Require().NoError(err)
	s.Equal(0, again.Deleted)
}

type RedisRepositoryTestSuite struct {
	repositoryContract
	mr *miniredis.Miniredis
}

func (s *RedisRepositoryTestSuite) SetupTest() {
	s.mr = miniredis.RunT(s.T())
	client, err := redisclient.NewClient(s.mr.Addr(), nil)
	s.Require().NoError(err)

	repo, err := NewRedisRepository(&Config{
		Client: client,
		Clock:  &stepClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
	})
	s.Require().NoError(err)

	s.ctx = context.Background()
	s.repo = repo
}

func (s *RedisRepositoryTestSuite) TestKeysLayout() {
	out, err := s.repo.Save(s.ctx, SaveInput{DeploymentID: "office", Summary: testSummary(1)})
	s.Require().NoError(err)

	s.True(s.mr.Exists("coverage:evaluation:" + out.Record.ID))
	members, err := s.mr.ZMembers("coverage:deployment:office:evaluations")
	s.Require().NoError(err)
	s.Equal([]string{out.Record.ID}, members)
}

func (s *RedisRepositoryTestSuite) TestTTLExpiresRecords() {
	client, err := redisclient.NewClient(s.mr.Addr(), nil)
	s.Require().NoError(err)
	repo, err := NewRedisRepository(&Config{Client: client, Clock: clock.New(), TTL: time.Minute})
	s.Require().NoError(err)

	out, err := repo.Save(s.ctx, SaveInput{DeploymentID: "temp", Summary: testSummary(0)})
	s.Require().NoError(err)

	s.mr.FastForward(2 * time.Minute)

	_, err = repo.Get(s.ctx, GetInput{ID: out.Record.ID})
	s.ErrorIs(err, ErrNotFound)

	list, err := repo.ListByDeployment(s.ctx, ListInput{DeploymentID: "temp"})
	s.Require().NoError(err)
	s.Empty(list.Records)
}

func (s *RedisRepositoryTestSuite) TestListLimitSkipsAndPrunesExpiredRecords() {
	ids := make([]string, 4)
	for i := range ids {
		out, err := s.repo.Save(s.ctx, SaveInput{DeploymentID: "hq", Summary: testSummary(float64(i))})
		s.Require().NoError(err)
		ids[i] = out.Record.ID
	}
	// The two newest records expire.
	s.True(s.mr.Del(evaluationKey(ids[3])))
	s.True(s.mr.Del(evaluationKey(ids[2])))

	list, err := s.repo.ListByDeployment(s.ctx, ListInput{DeploymentID: "hq", Limit: 2})
	s.Require().NoError(err)
	s.Require().Len(list.Records, 2)
	s.Equal(ids[1], list.Records[0].ID)
	s.Equal(ids[0], list.Records[1].ID)

	members, err := s.mr.ZMembers(deploymentKey("hq"))
	s.Require().NoError(err)
	s.ElementsMatch([]string{ids[0], ids[1]}, members)

	list, err = s.repo.ListByDeployment(s.ctx, ListInput{DeploymentID: "hq", Limit: 1})
	s.Require().NoError(err)
	s.Require().Len(list.Records, 1)
	s.Equal(ids[1], list.Records[0].ID)
}

func (s *RedisRepositoryTestSuite) TestNewRedisRepositoryValidation() {
	client, err := redisclient.NewClient(s.mr.Addr(), nil)
	s.Require().NoError(err)

	testCases := []struct {
		name string
		cfg  *Config
	}{
		{name: "nil config", cfg: nil},
		{name: "nil client", cfg: &Config{Clock: clock.New()}},
		{name: "nil clock", cfg: &Config{Client: client}},
		{name: "negative ttl", cfg: &Config{Client: client, Clock: clock.New(), TTL: -time.Second}},
	}
	for _, tc := range testCases {
		s.Run(tc.name, func() {
			repo, err := NewRedisRepository(tc.cfg)
			s.ErrorIs(err, ErrInvalidArgument)
			s.Nil(repo)
		})
	}
}

func (s *RedisRepositoryTestSuite) TestRedisUnavailable() {
	s.mr.Close()
	_, err := s.repo.Save(s.ctx, SaveInput{DeploymentID: "office", Summary: testSummary(0)})
	s.Error(err)
	s.NotErrorIs(err, ErrInvalidArgument)
}

func TestRedisRepositorySuite(t *testing.T) {
	suite.Run(t, new(RedisRepositoryTestSuite))
}

type MemoryRepositoryTestSuite struct {
	repositoryContract
}

func (s *MemoryRepositoryTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.repo = NewMemoryRepository(&stepClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)})
}

func TestMemoryRepositorySuite(t *testing.T) {
	suite.Run(t, new(MemoryRepositoryTestSuite))
}

func TestFixedClock(t *testing.T) {
	at := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	repo := NewMemoryRepository(clock.Fixed(at))
	out, err := repo.Save(context.Background(), SaveInput{DeploymentID: "d", Summary: testSummary(0)})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !out.Record.CreatedAt.Equal(at) {
		t.Fatalf("CreatedAt = %v, want %v", out.Record.CreatedAt, at)
	}
}
