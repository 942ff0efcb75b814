package devserver

import (
	"errors"
	"strings"
	"sync"
	"time"

	"zaivio-client/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailExists     = errors.New("email already exists")
	ErrUsernameExists  = errors.New("username already exists")
	ErrUserNotFound    = errors.New("user not found")
	ErrNothingToRedeem = errors.New("no points available for redemption")
)

// pointsPerToken is how many points convert into one Zaivio token.
var pointsPerToken = decimal.NewFromInt(100)

type account struct {
	user         models.User
	passwordHash string
}

// Store is the development backend's in-memory data.
type Store struct {
	mu sync.RWMutex

	nextUserID        int
	nextActivityID    int
	nextNodeID        int
	nextWalletID      int
	nextTransactionID int

	accounts     map[int]*account
	points       map[int]*models.Points
	activities   map[int][]models.Activity
	wallets      map[int]*models.Wallet
	nodes        []models.Node
	transactions []models.AdminTransaction

	// refreshTokens holds the refresh tokens that may still be exchanged, by token.
	refreshTokens map[string]int
}

func NewStore() *Store {
	return &Store{
		nextUserID:        1,
		nextActivityID:    1,
		nextNodeID:        1,
		nextWalletID:      1,
		nextTransactionID: 1,
		accounts:          map[int]*account{},
		points:            map[int]*models.Points{},
		activities:        map[int][]models.Activity{},
		wallets:           map[int]*models.Wallet{},
		refreshTokens:     map[string]int{},
	}
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// CreateUser registers a user. Email and username are unique, case-insensitively.
func (s *Store) CreateUser(user models.User, password string) (models.User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return models.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if user.Email != "" && strings.EqualFold(a.user.Email, user.Email) {
			return models.User{}, ErrEmailExists
		}
		if strings.EqualFold(a.user.Username, user.Username) {
			return models.User{}, ErrUsernameExists
		}
	}

	now := time.Now().UTC()
	user.UserID = s.nextUserID
	s.nextUserID++
	if user.Role == "" {
		user.Role = models.MemberRole
	}
	if user.Status == "" {
		user.Status = models.StatusActive
	}
	user.RegistrationDate = &now

	s.accounts[user.UserID] = &account{user: user, passwordHash: hash}
	s.points[user.UserID] = &models.Points{ZavioTokenRewarded: decimal.Zero, DateUpdated: &now}
	return user, nil
}

// Authenticate returns the user matching email and password.
func (s *Store) Authenticate(email, password string) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if strings.EqualFold(a.user.Email, email) && CheckPasswordHash(password, a.passwordHash) {
			if a.user.Status == models.StatusSuspended {
				return models.User{}, false
			}
			now := time.Now().UTC()
			a.user.LastLogin = &now
			return a.user, true
		}
	}
	return models.User{}, false
}

func (s *Store) User(id int) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return a.user, nil
}

func (s *Store) Users() []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.User, 0, len(s.accounts))
	for id := 1; id < s.nextUserID; id++ {
		if a, ok := s.accounts[id]; ok {
			users = append(users, a.user)
		}
	}
	return users
}

func (s *Store) UpdateUser(id int, update func(*models.User)) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	update(&a.user)
	return a.user, nil
}

func (s *Store) SaveRefreshToken(refreshToken string, userID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshTokens[refreshToken] = userID
}

// ConsumeRefreshToken removes a refresh token so it can be used only once.
func (s *Store) ConsumeRefreshToken(refreshToken string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userID, ok := s.refreshTokens[refreshToken]
	delete(s.refreshTokens, refreshToken)
	return userID, ok
}

// RevokeRefreshTokens drops every refresh token of userID.
func (s *Store) RevokeRefreshTokens(userID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for t, id := range s.refreshTokens {
		if id == userID {
			delete(s.refreshTokens, t)
		}
	}
}

func (s *Store) Points(userID int) models.Points {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.points[userID]; ok {
		return *p
	}
	return models.Points{ZavioTokenRewarded: decimal.Zero}
}

// Reward credits points to a user and records the activity.
func (s *Store) Reward(userID int, points int64, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.points[userID]
	if !ok {
		p = &models.Points{ZavioTokenRewarded: decimal.Zero}
		s.points[userID] = p
	}
	now := time.Now().UTC()
	p.TotalPoints += points
	p.AvailableForRedeem += points
	p.DateUpdated = &now
	s.addActivity(userID, models.RewardActivity, points, description, true)
}

// Redeem converts all available points into tokens and opens a pending transaction.
func (s *Store) Redeem(userID int) (models.RedeemResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.points[userID]
	if !ok || p.AvailableForRedeem <= 0 {
		return models.RedeemResult{}, ErrNothingToRedeem
	}

	now := time.Now().UTC()
	redeemed := p.AvailableForRedeem
	tokens := decimal.NewFromInt(redeemed).Div(pointsPerToken)
	p.AvailableForRedeem = 0
	p.ZavioTokenRewarded = p.ZavioTokenRewarded.Add(tokens)
	p.DateUpdated = &now

	tx := models.AdminTransaction{
		Transaction: models.Transaction{
			TransactionID:     s.nextTransactionID,
			TokensRedeemed:    tokens,
			TransactionStatus: models.TransactionPending,
			TransactionDate:   now.Format(time.RFC3339),
		},
		UserID: userID,
	}
	if a, ok := s.accounts[userID]; ok {
		tx.Username = a.user.Username
		tx.Email = a.user.Email
	}
	if w, ok := s.wallets[userID]; ok {
		tx.WalletAddress = w.WalletAddress
	}
	s.nextTransactionID++
	s.transactions = append(s.transactions, tx)
	s.addActivity(userID, models.RedemptionActivity, redeemed, "Points redeemed for Zaivio tokens", false)

	return models.RedeemResult{
		TotalRedeemedPoints: redeemed,
		RemainingPoints:     p.AvailableForRedeem,
		Timestamp:           &now,
	}, nil
}

func (s *Store) addActivity(userID int, kind models.ActivityType, points int64, description string, credit bool) {
	s.activities[userID] = append(s.activities[userID], models.Activity{
		ID:                s.nextActivityID,
		Type:              kind,
		Points:            points,
		Description:       description,
		ActivityTimestamp: time.Now().UTC().Format(time.RFC3339),
		IsCredit:          credit,
	})
	s.nextActivityID++
}

// Activities lists a user's activity, optionally only rewards.
func (s *Store) Activities(userID int, rewardsOnly bool) []models.Activity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Activity{}
	for _, a := range s.activities[userID] {
		if rewardsOnly && a.Type != models.RewardActivity {
			continue
		}
		out = append(out, a)
	}
	return out
}

func (s *Store) Wallet(userID int) (models.Wallet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.wallets[userID]
	if !ok {
		return models.Wallet{}, false
	}
	return *w, true
}

// SaveWallet creates the user's wallet or changes its address.
func (s *Store) SaveWallet(userID int, address string) models.Wallet {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wallets[userID]
	if !ok {
		w = &models.Wallet{
			WalletID:   s.nextWalletID,
			UserID:     userID,
			WalletType: "zaivio",
			CreatedAt:  time.Now().UTC().Format(time.RFC3339),
		}
		s.nextWalletID++
		s.wallets[userID] = w
	}
	if address != "" {
		w.WalletAddress = address
	}
	return *w
}

func (s *Store) Nodes() []models.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Node{}, s.nodes...)
}

func (s *Store) SaveNode(nodeID int, input models.NodeInput) (models.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node := models.Node{
		Status:      input.Status,
		TotalNodes:  input.TotalNodes,
		DailyReward: input.DailyReward,
		DateUpdated: time.Now().UTC().Format(time.RFC3339),
	}
	if nodeID == 0 {
		node.NodeID = s.nextNodeID
		s.nextNodeID++
		s.nodes = append(s.nodes, node)
		return node, true
	}
	for i := range s.nodes {
		if s.nodes[i].NodeID == nodeID {
			node.NodeID = nodeID
			s.nodes[i] = node
			return node, true
		}
	}
	return models.Node{}, false
}

func (s *Store) Transactions(userID int) []models.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Transaction{}
	for _, tx := range s.transactions {
		if tx.UserID == userID {
			out = append(out, tx.Transaction)
		}
	}
	return out
}

func (s *Store) AllTransactions() []models.AdminTransaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.AdminTransaction{}, s.transactions...)
}

// ApproveTransactions marks pending transactions successful and returns how many changed.
func (s *Store) ApproveTransactions(ids []int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	approved := 0
	for i := range s.transactions {
		tx := &s.transactions[i]
		if _, ok := wanted[tx.TransactionID]; ok && tx.TransactionStatus == models.TransactionPending {
			tx.TransactionStatus = models.TransactionSuccess
			approved++
		}
	}
	return approved
}
