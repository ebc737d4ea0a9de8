package usecase_test

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/txsummary/internal/domain"
)

var errBoom = errors.New("boom")

const testAccountID = "01ARZ3NDEKTSV4RRFFQ69G5FAV"

func mkTx(id string, amount int64, date string) *domain.Transaction {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return &domain.Transaction{ID: id, AccountID: testAccountID, Amount: decimal.NewFromInt(amount), Date: d}
}

func testAccount() *domain.Account {
	return &domain.Account{ID: testAccountID, Nickname: "Ana", Email: "ana@example.com"}
}
