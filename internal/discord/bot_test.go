package discord

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/NgigiN/expenso/internal/export"
	"github.com/NgigiN/expenso/internal/repository"
	"github.com/NgigiN/expenso/internal/storage"
	"github.com/NgigiN/expenso/internal/viewmodel"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBot(t *testing.T) *Bot {
	t.Helper()
	path := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := storage.NewDatabase(path)
	require.NoError(t, err)

	files := afero.NewMemMapFs()
	dest := export.NewFileDestinations(files, "exports")
	vm, err := viewmodel.New(repository.NewTransactionRepo(db), export.NewService(dest, zerolog.Nop()), db, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		vm.Close()
		db.Close()
	})

	return &Bot{
		vm:        vm,
		files:     files,
		dest:      dest,
		startTime: today,
		now:       func() time.Time { return today },
		log:       zerolog.Nop(),
	}
}

func send(t *testing.T, b *Bot, content string) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), replyTimeout)
	defer cancel()
	return b.dispatch(ctx, nil, "channel", content)
}

func TestDispatch_AddListSummary(t *testing.T) {
	b := newTestBot(t)

	reply := send(t, b, "!add\nTitle: Salary\nAmount: 100\nType: income\nTag: Miscellaneous\nNote: march")
	assert.Equal(t, "Tracked income: $100.00 Salary in Miscellaneous on 14/02/2024", reply)
	send(t, b, "!add\nti: Rent\na: 30\nty: Expense\nt: Housing\nn: flat")

	assert.Contains(t, send(t, b, "!list expense"), "Rent")
	assert.Contains(t, send(t, b, "!summary"), "**Balance**: $70.00")
	assert.Empty(t, send(t, b, "just chatting"))

	reply = send(t, b, "!add\nTitle: Odd\nAmount: 1\nType: Overall\nTag: Food\nNote: x")
	assert.Contains(t, reply, "Invalid transaction: transactionType")
}

func TestDispatch_ConcurrentCommandsSeeTheirOwnFilter(t *testing.T) {
	b := newTestBot(t)
	send(t, b, "!add\nti: Salary\na: 100\nty: Income\nt: Miscellaneous\nn: march")
	send(t, b, "!add\nti: Rent\na: 30\nty: Expense\nt: Housing\nn: flat")

	var wg sync.WaitGroup
	lists := make(chan string, 20)
	summaries := make(chan string, 20)
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			lists <- send(t, b, "!list income")
		}()
		go func() {
			defer wg.Done()
			summaries <- send(t, b, "!summary")
		}()
	}
	wg.Wait()
	close(lists)
	close(summaries)

	for reply := range lists {
		assert.Contains(t, reply, "Salary")
		assert.NotContains(t, reply, "Rent")
	}
	for reply := range summaries {
		assert.Contains(t, reply, "**Balance**: $70.00")
		assert.Contains(t, reply, "(2 transactions)")
	}
}

func TestDispatch_EditDeleteUndo(t *testing.T) {
	b := newTestBot(t)
	send(t, b, "!add\nti: Lunch\na: 12\nty: Expense\nt: Food\nn: team")

	list := send(t, b, "!list")
	require.Contains(t, list, "`#1`")

	assert.Equal(t, "Updated #1 Team lunch", send(t, b, "!edit #1\nTitle: Team lunch\nAmount: 15"))
	list = send(t, b, "!list")
	assert.Contains(t, list, "**-$15.00** Team lunch (Food)")

	assert.Contains(t, send(t, b, "!edit 1\nType: Bogus"), "Invalid transaction: transactionType")
	assert.Contains(t, send(t, b, "!edit 1"), "no fields to change")
	assert.Equal(t, "No transaction with id 9", send(t, b, "!edit 9\nTitle: x"))

	assert.Contains(t, send(t, b, "!delete 1"), "Deleted #1 Team lunch")
	assert.Equal(t, "No transactions found.", send(t, b, "!summary"))

	assert.Equal(t, "Restored the last deleted transaction.", send(t, b, "!undo"))
	list = send(t, b, "!list")
	assert.Contains(t, list, "Team lunch")
	assert.False(t, strings.Contains(list, "`#1`"), "restored row gets a new id")

	assert.Contains(t, send(t, b, "!undo"), "Nothing restored")
}
