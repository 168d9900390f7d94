package account

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/everleepham/bank-antiscam-app/internal/identifier"
	"github.com/everleepham/bank-antiscam-app/pkg/common"
	"github.com/everleepham/bank-antiscam-app/pkg/config"
	"github.com/everleepham/bank-antiscam-app/pkg/logger"
	"github.com/everleepham/bank-antiscam-app/pkg/middleware"
	"github.com/everleepham/bank-antiscam-app/pkg/models"
)

// TierDescriber reports the tier flag and warning text for a score
type TierDescriber interface {
	DescribeScore(score int) (flag, warning string, err error)
}

// Service handles registration, login and score lookups
type Service struct {
	repo    AccountRepository
	devices DeviceLog
	graph   GraphWriter
	issuer  IDIssuer
	policy  PolicyChecker
	scores  ScoreResolver
	tiers   TierDescriber
	jwtCfg  config.JWTConfig
	trust   config.TrustConfig
}

// NewService creates a new account service
func NewService(
	repo AccountRepository,
	devices DeviceLog,
	graph GraphWriter,
	issuer IDIssuer,
	policy PolicyChecker,
	scores ScoreResolver,
	tiers TierDescriber,
	jwtCfg config.JWTConfig,
	trust config.TrustConfig,
) *Service {
	return &Service{
		repo:    repo,
		devices: devices,
		graph:   graph,
		issuer:  issuer,
		policy:  policy,
		scores:  scores,
		tiers:   tiers,
		jwtCfg:  jwtCfg,
		trust:   trust,
	}
}

// Register creates the durable account record and mirrors it into the
// relationship graph.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*models.Account, error) {
	if existing, err := s.repo.GetByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, common.NewValidation("email already registered")
	} else if err != nil {
		if appErr, ok := common.AsAppError(err); !ok || appErr.Code != common.CodeNotFound {
			return nil, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, common.NewInternal("unable to hash password", err)
	}

	id, err := s.issuer.Next(ctx, identifier.ClassAccount)
	if err != nil {
		return nil, err
	}

	plafond := req.Plafond
	if plafond <= 0 {
		plafond = s.trust.DefaultPlafond
	}

	acct := &models.Account{
		ID:           id,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: string(hash),
		Score:        s.trust.DefaultScore,
		Plafond:      plafond,
		New:          true,
		AppliedRules: []string{},
		CreatedAt:    time.Now(),
	}

	if err := s.repo.Create(ctx, acct); err != nil {
		return nil, err
	}

	if err := s.graph.EnsureAccountNode(ctx, acct.ID, acct.DisplayName(), acct.Score); err != nil {
		// The durable record is authoritative; the graph mirror can be
		// rebuilt by a reconciliation pass keyed on the account id.
		logger.Warn("account node not mirrored to graph",
			zap.String("account_id", acct.ID),
			zap.Error(err),
		)
	}

	return acct, nil
}

// Login authenticates the account, enforces the login policy for its tier
// and appends a device binding for the hardware it came from.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	acct, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if appErr, ok := common.AsAppError(err); ok && appErr.Code == common.CodeNotFound {
			return nil, common.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(req.Password)) != nil {
		return nil, common.NewUnauthorized("invalid credentials")
	}

	if err := s.policy.CheckLogin(ctx, acct.ID); err != nil {
		return nil, err
	}

	if err := s.recordDeviceBinding(ctx, acct.ID, &req.DeviceLog); err != nil {
		return nil, err
	}

	score, err := s.scores.CurrentScore(ctx, acct.ID)
	if err != nil {
		return nil, err
	}

	flag, warning, err := s.tiers.DescribeScore(score)
	if err != nil {
		return nil, err
	}

	token, err := s.issueToken(acct.ID)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		Token:     token,
		AccountID: acct.ID,
		Score:     score,
		Flag:      flag,
		Warning:   warning,
	}, nil
}

// GetScore resolves the account's current score with its tier description
func (s *Service) GetScore(ctx context.Context, accountID string) (*ScoreResponse, error) {
	if _, err := s.repo.GetByID(ctx, accountID); err != nil {
		return nil, err
	}

	score, err := s.scores.CurrentScore(ctx, accountID)
	if err != nil {
		return nil, err
	}

	flag, warning, err := s.tiers.DescribeScore(score)
	if err != nil {
		return nil, err
	}

	return &ScoreResponse{
		AccountID: accountID,
		Score:     score,
		Flag:      flag,
		Warning:   warning,
	}, nil
}

func (s *Service) recordDeviceBinding(ctx context.Context, accountID string, req *DeviceLogRequest) error {
	deviceID := models.DeriveDeviceID(req.MACAddress)
	ts := req.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	binding := &models.DeviceBinding{
		DeviceID:   deviceID,
		AccountID:  accountID,
		MACAddress: req.MACAddress,
		IPAddress:  req.IPAddress,
		Timestamp:  ts,
		Location:   req.Location,
	}

	if err := s.devices.Log(ctx, binding); err != nil {
		return err
	}

	if err := s.graph.EnsureDeviceNode(ctx, deviceID); err != nil {
		return err
	}
	return s.graph.LinkDevice(ctx, accountID, deviceID)
}

func (s *Service) issueToken(accountID string) (string, error) {
	claims := &middleware.Claims{
		AccountID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(s.jwtCfg.Expiration) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   accountID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtCfg.Secret))
	if err != nil {
		return "", common.NewInternal("unable to sign token", err)
	}
	return signed, nil
}
