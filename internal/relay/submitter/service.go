package submitter

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github/chapool/gas-relay/internal/config"
	"github/chapool/gas-relay/internal/relay/provider"
)

type service struct {
	cfg        config.Relay
	pool       *provider.Pool
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// NewService loads the service signing key and creates the submitter.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(cfg config.Relay, pool *provider.Pool) (Service, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(cfg.SignerPrivateKey), "0x")
	if raw == "" {
		return nil, errors.New("signer private key not configured")
	}

	privateKey, err := crypto.HexToECDSA(raw)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse signer private key")
	}

	publicKey, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, errors.New("failed to cast public key to ECDSA")
	}

	address := crypto.PubkeyToAddress(*publicKey)
	log.Info().Str("address", address.Hex()).Msg("Loaded relay signer key")

	return &service{
		cfg:        cfg,
		pool:       pool,
		privateKey: privateKey,
		address:    address,
	}, nil
}

// SubmitTransaction signs the parametrized call with the service key and
// broadcasts it, returning the transaction hash.
func (s *service) SubmitTransaction(ctx context.Context, params *SubmitParams) (common.Hash, error) {
	var nonce uint64
	err := s.pool.ExecuteWithFallback(ctx, params.ChainID, func(ctx context.Context, client provider.EVMClient) error {
		pending, err := client.PendingNonceAt(ctx, s.address)
		if err != nil {
			return err
		}
		nonce = pending
		return nil
	})
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "failed to fetch pending nonce")
	}

	signedTx, err := s.buildAndSignTransaction(params, nonce)
	if err != nil {
		return common.Hash{}, err
	}

	err = s.pool.ExecuteWithFallback(ctx, params.ChainID, func(ctx context.Context, client provider.EVMClient) error {
		return client.SendTransaction(ctx, signedTx)
	})
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "failed to broadcast transaction")
	}

	txHash := signedTx.Hash()
	log.Info().
		Int64("chain_id", params.ChainID).
		Str("tx_hash", txHash.Hex()).
		Uint64("nonce", nonce).
		Msg("Broadcast transaction")

	return txHash, nil
}

// GetTransactionReceipt returns the receipt once the transaction is mined.
// A pending transaction yields (nil, nil), not an error.
func (s *service) GetTransactionReceipt(ctx context.Context, chainID int64, txHash common.Hash) (*coretypes.Receipt, error) {
	var receipt *coretypes.Receipt
	err := s.pool.ExecuteWithFallback(ctx, chainID, func(ctx context.Context, client provider.EVMClient) error {
		found, err := client.TransactionReceipt(ctx, txHash)
		if errors.Is(err, ethereum.NotFound) {
			receipt = nil
			return nil
		}
		if err != nil {
			return err
		}
		receipt = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	return receipt, nil
}

// GetBalance returns the signer balance on the given chain, zero when the
// lookup fails. Balance is informational only, never a submission gate.
func (s *service) GetBalance(ctx context.Context, chainID int64) *big.Int {
	balance := big.NewInt(0)
	err := s.pool.ExecuteWithFallback(ctx, chainID, func(ctx context.Context, client provider.EVMClient) error {
		fetched, err := client.BalanceAt(ctx, s.address, nil)
		if err != nil {
			return err
		}
		balance = fetched
		return nil
	})
	if err != nil {
		log.Warn().Int64("chain_id", chainID).Err(err).Msg("Failed to fetch signer balance")
		return big.NewInt(0)
	}

	return balance
}

// SignerAddress returns the address all relayed transactions originate from.
func (s *service) SignerAddress() common.Address {
	return s.address
}

// CheckHealth reports whether the signing key is loaded and at least one
// supported chain answers.
func (s *service) CheckHealth(ctx context.Context) bool {
	if s.privateKey == nil {
		return false
	}

	for _, chainID := range s.cfg.SupportedChainIDs {
		err := s.pool.ExecuteWithFallback(ctx, chainID, func(ctx context.Context, client provider.EVMClient) error {
			_, err := client.BlockNumber(ctx)
			return err
		})
		if err == nil {
			return true
		}
	}

	return false
}
