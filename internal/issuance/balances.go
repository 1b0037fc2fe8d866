package issuance

import (
	"math/big"
	"sort"
	"strings"

	"tokenEngine/internal/model"
)

type balanceKey struct {
	address   string
	partition string
}

// AggregateBalances derives per-holder, per-partition balances for one
// contract from the issuance event log. It is a pure grouping: the
// result does not depend on event order, and groups whose sum is not
// positive are omitted. Addresses are matched case-insensitively.
func AggregateBalances(events []model.IssuanceEvent, chainID, contractAddress string) []model.HolderBalance {
	sums := make(map[balanceKey]*big.Int)
	display := make(map[balanceKey]string)

	for _, ev := range events {
		if ev.ChainID != chainID {
			continue
		}
		if !strings.EqualFold(ev.ContractAddress, contractAddress) {
			continue
		}

		amount, ok := new(big.Int).SetString(ev.Amount, 10)
		if !ok {
			continue
		}

		key := balanceKey{address: strings.ToLower(ev.ToAddress), partition: ev.Partition}
		if sum, exists := sums[key]; exists {
			sum.Add(sum, amount)
		} else {
			sums[key] = new(big.Int).Set(amount)
			display[key] = ev.ToAddress
		}
	}

	balances := make([]model.HolderBalance, 0, len(sums))
	for key, sum := range sums {
		if sum.Sign() <= 0 {
			continue
		}
		balances = append(balances, model.HolderBalance{
			Address:   display[key],
			Partition: key.partition,
			Balance:   sum.String(),
		})
	}

	sort.Slice(balances, func(i, j int) bool {
		if balances[i].Address != balances[j].Address {
			return balances[i].Address < balances[j].Address
		}
		return balances[i].Partition < balances[j].Partition
	})
	return balances
}
