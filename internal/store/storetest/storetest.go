// Package storetest holds behavior checks shared by every core.Store backend.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/JonMunkholm/companies/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stamp = time.Date(2024, 3, 15, 12, 30, 0, 0, time.UTC)

func company(code string) core.Company {
	return core.Company{
		RegistryCode: code,
		LegalName:    "Company " + code,
		StatusCode:   "ATIVO",
		UpdatedAt:    stamp,
	}
}

// Run exercises a store produced by open. Each subtest gets a fresh,
// empty store with its schema in place.
func Run(t *testing.T, open func(t *testing.T) core.Store) {
	t.Run("EnsureSchemaIsIdempotent", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.EnsureSchema(context.Background()))
		require.NoError(t, s.Ping(context.Background()))
	})

	t.Run("InsertAndFind", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		require.NoError(t, s.WithSession(ctx, func(sess core.Session) error {
			_, err := sess.Insert(ctx, company("1"))
			return err
		}))

		require.NoError(t, s.WithSession(ctx, func(sess core.Session) error {
			got, found, err := sess.FindByKey(ctx, "1")
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, company("1"), got)

			_, found, err = sess.FindByKey(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, found)
			return nil
		}))
	})

	t.Run("DuplicateInsert", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		seed(t, s, company("1"))
		err := s.WithSession(ctx, func(sess core.Session) error {
			_, err := sess.Insert(ctx, core.Company{RegistryCode: "1", LegalName: "Other", StatusCode: "X", UpdatedAt: stamp})
			return err
		})
		assert.True(t, errors.Is(err, core.ErrDuplicateKey), "err = %v", err)

		page := list(t, s, 0, 10)
		require.Len(t, page, 1)
		assert.Equal(t, "Company 1", page[0].LegalName)
	})

	t.Run("RollbackOnError", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		boom := errors.New("boom")

		err := s.WithSession(ctx, func(sess core.Session) error {
			if err := sess.InsertBatch(ctx, []core.Company{company("1"), company("2")}); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Empty(t, list(t, s, 0, 10))
	})

	t.Run("BatchVisibleInSession", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		require.NoError(t, s.WithSession(ctx, func(sess core.Session) error {
			require.NoError(t, sess.InsertBatch(ctx, []core.Company{company("1")}))
			_, found, err := sess.FindByKey(ctx, "1")
			require.NoError(t, err)
			assert.True(t, found)
			return nil
		}))
	})

	t.Run("ListInInsertionOrder", func(t *testing.T) {
		s := open(t)

		var batch []core.Company
		for i := 9; i >= 0; i-- {
			batch = append(batch, company(fmt.Sprintf("%02d", i)))
		}
		seed(t, s, batch...)

		all := list(t, s, 0, 100)
		require.Len(t, all, 10)
		assert.Equal(t, "09", all[0].RegistryCode)
		assert.Equal(t, "00", all[9].RegistryCode)

		page := list(t, s, 3, 2)
		require.Len(t, page, 2)
		assert.Equal(t, "06", page[0].RegistryCode)
		assert.Equal(t, "05", page[1].RegistryCode)

		assert.Empty(t, list(t, s, 10, 5))
	})
}

func seed(t *testing.T, s core.Store, companies ...core.Company) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.WithSession(ctx, func(sess core.Session) error {
		return sess.InsertBatch(ctx, companies)
	}))
}

func list(t *testing.T, s core.Store, offset, limit int) []core.Company {
	t.Helper()
	var out []core.Company
	ctx := context.Background()
	require.NoError(t, s.WithSession(ctx, func(sess core.Session) error {
		var err error
		out, err = sess.List(ctx, offset, limit)
		return err
	}))
	return out
}
