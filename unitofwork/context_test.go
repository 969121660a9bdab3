package unitofwork_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/librisys/loanservice/testutil"
	"github.com/librisys/loanservice/unitofwork"
)

func Test_ScopeFromContext_RoundTrip(t *testing.T) {
	// setup
	scope := unitofwork.NewScope(&testutil.FakeTx{})

	// act
	ctx := unitofwork.ContextWithScope(context.Background(), scope)

	// assert
	assert.Same(t, scope, unitofwork.ScopeFromContext(ctx))
}

func Test_ScopeFromContext_WithoutScope_ReturnsNil(t *testing.T) {
	assert.Nil(t, unitofwork.ScopeFromContext(context.Background()))
}

func Test_QuerierFrom_PrefersScopeTransaction(t *testing.T) {
	// setup
	tx := &testutil.FakeTx{}
	scope := unitofwork.NewScope(tx)
	fallback := testutil.NewFakeDB()

	// act + assert
	assert.Same(t, tx, unitofwork.QuerierFrom(scope, fallback))
	assert.Same(t, fallback, unitofwork.QuerierFrom(nil, fallback))
}
