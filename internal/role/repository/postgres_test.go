package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"identity-platform/backend/internal/apperr"
	permission "identity-platform/backend/internal/permission/domain"
	"identity-platform/backend/internal/platform/entity"
	"identity-platform/backend/internal/role/domain"
)

func newMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestGetByName_NotFound(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, created_at FROM roles WHERE name =`)).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}))

	r, err := repo.GetByName(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, r)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByName_LoadsPermissionsAndMembers(t *testing.T) {
	repo, mock := newMock(t)
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, created_at FROM roles WHERE name =`)).
		WithArgs("admin").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("role-1", created))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT permission FROM role_permissions`)).
		WithArgs("role-1").
		WillReturnRows(sqlmock.NewRows([]string{"permission"}).AddRow("read_user").AddRow("list_users"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT principal_id FROM role_members`)).
		WithArgs("role-1").
		WillReturnRows(sqlmock.NewRows([]string{"principal_id"}).AddRow("user-1"))

	r, err := repo.GetByName(context.Background(), "admin")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "role-1", r.ID().String())
	assert.Equal(t, []string{"read_user", "list_users"}, r.Permissions.Strings())
	assert.True(t, r.Members.Has(entity.MustParseID("user-1")))
	assert.Empty(t, r.Permissions.NewItems())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSave_PersistsOnlyDiffs(t *testing.T) {
	repo, mock := newMock(t)
	read := permission.MustParseName(permission.UsersRead)
	list := permission.MustParseName(permission.UsersList)
	role := domain.Restore(entity.MustParseID("role-1"), domain.Props{
		Name:        domain.MustParseName(domain.Admin),
		Permissions: []permission.Name{read},
		Members:     []entity.ID{entity.MustParseID("user-1")},
	})
	role.Grant(list)
	role.Revoke(read)
	role.AddMember(entity.MustParseID("user-2"))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO roles`)).
		WithArgs("role-1", "admin", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO role_permissions`)).
		WithArgs("role-1", "list_users").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM role_permissions`)).
		WithArgs("role-1", "read_user").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO role_members`)).
		WithArgs("role-1", "user-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Save(context.Background(), role))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPermissionsByName_SkipsMembers(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM roles WHERE name =`)).
		WithArgs("member").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("role-3"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT permission FROM role_permissions`)).
		WithArgs("role-3").
		WillReturnRows(sqlmock.NewRows([]string{"permission"}).AddRow("list_sessions"))

	perms, err := repo.GetPermissionsByName(context.Background(), "member")
	require.NoError(t, err)
	require.NotNil(t, perms)
	assert.Equal(t, []string{"list_sessions"}, perms.Strings())
	assert.NoError(t, mock.ExpectationsWereMet(), "role_members must not be queried")
}

func TestGetPermissionsByName_NotFound(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM roles WHERE name =`)).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	perms, err := repo.GetPermissionsByName(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, perms)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddMember(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM roles WHERE name =`)).
		WithArgs("member").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("role-3"))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO role_members`)).
		WithArgs("role-3", "user-9").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.AddMember(context.Background(), "member", entity.MustParseID("user-9")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddMember_UnknownRole(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM roles WHERE name =`)).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	err := repo.AddMember(context.Background(), "ghost", entity.MustParseID("user-9"))
	assert.ErrorIs(t, err, apperr.ErrResourceNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
