package seed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core/user"
	inmemdb "github.com/trezcool/academia/storage/inmem"
)

func TestLearning(t *testing.T) {
	s, err := Learning()
	require.NoError(t, err)

	assert.Len(t, s.Employees, 6)
	assert.Len(t, s.Courses, 6)
	assert.Len(t, s.Programs, 4)
	assert.Len(t, s.CertificationTests, 4)
	assert.Len(t, s.Enrollments, 5)
	assert.Len(t, s.Webinars, 4)
	assert.Len(t, s.Documents, 5)
	assert.Len(t, s.DevelopmentPlans, 4)

	assert.Equal(t, "Sarah Connor", s.Employees[0].Name)
	assert.False(t, s.Employees[0].JoinedAt.IsZero())
	assert.Equal(t, []string{"1", "2"}, s.Programs[0].Courses)
	if assert.NotNil(t, s.Programs[3].ArchivedAt) {
		assert.Equal(t, 2023, s.Programs[3].ArchivedAt.Year())
	}
	assert.Equal(t, []string{"security", "policy"}, s.Documents[1].Tags)
	assert.True(t, s.Documents[3].Archived)

	seen := make(map[string]bool)
	for _, c := range s.Courses {
		assert.False(t, seen[c.ID], "duplicate course id %s", c.ID)
		seen[c.ID] = true
	}
}

func TestCreateDemoUsers(t *testing.T) {
	svc := user.NewService(inmemdb.NewUserRepository(inmemdb.Open()))

	created, err := CreateDemoUsers(svc)
	require.NoError(t, err)
	require.Len(t, created, 3)
	assert.True(t, created[0].IsAdmin())
	assert.True(t, created[1].IsTrainer())
	assert.True(t, created[2].IsEmployee())
	assert.NoError(t, created[0].CheckPassword("Adm1n!Demo#"))

	// already there
	created, err = CreateDemoUsers(svc)
	require.NoError(t, err)
	assert.Empty(t, created)

	all, err := svc.QueryAll()
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
