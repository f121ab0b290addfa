package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/sirupsen/logrus"
)

// SOLDecimals is the number of decimal places between SOL and lamports
const SOLDecimals int32 = 9

const (
	defaultPollInterval   = 2 * time.Second
	defaultConfirmTimeout = 90 * time.Second // roughly the lifetime of a recent blockhash
)

// SolanaBridge signs native SOL transfers with a server-held payer key
type SolanaBridge struct {
	rpc            *rpc.Client
	payer          solana.PrivateKey
	PollInterval   time.Duration
	ConfirmTimeout time.Duration
}

// NewSolanaBridge connects to an RPC endpoint with a base58 encoded payer key
func NewSolanaBridge(endpoint, payerKey string) (*SolanaBridge, error) {
	if payerKey == "" {
		return nil, errors.New("solana payer key is required")
	}
	key, err := solana.PrivateKeyFromBase58(payerKey)
	if err != nil {
		return nil, fmt.Errorf("parse solana payer key: %w", err)
	}
	return &SolanaBridge{
		rpc:            rpc.New(endpoint),
		payer:          key,
		PollInterval:   defaultPollInterval,
		ConfirmTimeout: defaultConfirmTimeout,
	}, nil
}

// Address returns the payer public key
func (b *SolanaBridge) Address(ctx context.Context) (string, error) {
	return b.payer.PublicKey().String(), nil
}

// SendValue builds, signs and broadcasts a system transfer
func (b *SolanaBridge) SendValue(ctx context.Context, to string, amount uint64) (string, error) {
	recipient, err := solana.PublicKeyFromBase58(to)
	if err != nil {
		return "", fmt.Errorf("recipient %q: %w", to, err)
	}
	payer := b.payer.PublicKey()

	latest, err := b.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return "", fmt.Errorf("get latest blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{system.NewTransferInstruction(amount, payer, recipient).Build()},
		latest.Value.Blockhash,
		solana.TransactionPayer(payer),
	)
	if err != nil {
		return "", fmt.Errorf("build transfer: %w", err)
	}

	_, err = tx.Sign(func(pk solana.PublicKey) *solana.PrivateKey {
		if pk.Equals(payer) {
			return &b.payer
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("sign transfer: %w", err)
	}

	sig, err := b.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: rpc.CommitmentFinalized,
	})
	if err != nil {
		return "", fmt.Errorf("send transfer: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"to":       to,
		"lamports": amount,
		"tx":       sig.String(),
	}).Info("Transfer broadcast")
	return sig.String(), nil
}

// AwaitConfirmation polls the signature status until it reaches confirmed
// commitment, fails on chain, or ConfirmTimeout elapses.
func (b *SolanaBridge) AwaitConfirmation(ctx context.Context, txID string) (*Receipt, error) {
	sig, err := solana.SignatureFromBase58(txID)
	if err != nil {
		return nil, fmt.Errorf("transaction id %q: %w", txID, err)
	}
	if b.ConfirmTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.ConfirmTimeout)
		defer cancel()
	}

	interval := b.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		res, err := b.rpc.GetSignatureStatuses(ctx, true, sig)
		if err != nil {
			logrus.WithFields(logrus.Fields{"tx": txID, "error": err.Error()}).Warn("Signature status lookup failed")
		} else if len(res.Value) > 0 && res.Value[0] != nil {
			status := res.Value[0]
			if status.Err != nil {
				return nil, fmt.Errorf("transaction %s failed: %v", txID, status.Err)
			}
			switch status.ConfirmationStatus {
			case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
				return &Receipt{TxID: txID, Slot: status.Slot}, nil
			}
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("await confirmation of %s: %w", txID, ctx.Err())
		case <-ticker.C:
		}
	}
}
