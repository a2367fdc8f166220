// Package authgate 实现双重门禁授权：
// Google 身份验证通过后，还需通过邮箱白名单校验和 4 位 PIN 校验才算授权完成。
// 每个用户的验证状态缓存在内存中，登出、PIN 错误或身份变化时失效。
package authgate

import (
	"errors"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// State 授权状态机状态
type State int

const (
	// StateUnauthenticated 未认证（无会话）
	StateUnauthenticated State = iota
	// StateProviderVerified 身份提供方验证通过，尚未评估本地门禁
	StateProviderVerified
	// StatePinPending 白名单通过，等待 PIN 验证
	StatePinPending
	// StateAuthorized 授权完成
	StateAuthorized
	// StateDenied 授权被拒绝（不在白名单）
	StateDenied
)

// String 返回状态的可读名称
func (s State) String() string {
	switch s {
	case StateProviderVerified:
		return "provider_verified"
	case StatePinPending:
		return "pin_pending"
	case StateAuthorized:
		return "authorized"
	case StateDenied:
		return "denied"
	default:
		return "unauthenticated"
	}
}

var (
	// ErrEmailNotAllowed 邮箱不在白名单内
	ErrEmailNotAllowed = errors.New("邮箱不在授权名单内")
	// ErrPINMismatch PIN 错误
	ErrPINMismatch = errors.New("PIN 错误")
	// ErrNoPendingSignIn 当前没有等待 PIN 验证的登录
	ErrNoPendingSignIn = errors.New("没有待验证的登录，请重新登录")
)

// Policy 授权策略，全部来自配置而非硬编码
type Policy struct {
	PIN           string   // 明文 PIN
	PINHash       string   // bcrypt 哈希，配置后优先生效
	AllowedEmails []string // 为空表示不限制
}

// EmailAllowed 判断邮箱是否在白名单内；白名单为空时放行所有邮箱
func (p Policy) EmailAllowed(email string) bool {
	if len(p.AllowedEmails) == 0 {
		return true
	}
	for _, allowed := range p.AllowedEmails {
		if allowed == email {
			return true
		}
	}
	return false
}

// VerifyPIN 校验提交的 PIN
func (p Policy) VerifyPIN(pin string) bool {
	if p.PINHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(p.PINHash), []byte(pin)) == nil
	}
	return p.PIN != "" && pin == p.PIN
}

type session struct {
	state     State
	email     string
	updatedAt time.Time
}

// Gate 门禁状态机，按用户 ID 缓存验证状态
type Gate struct {
	policy   Policy
	mu       sync.RWMutex
	sessions map[uint]*session
}

// New 创建门禁
func New(policy Policy) *Gate {
	return &Gate{
		policy:   policy,
		sessions: make(map[uint]*session),
	}
}

// SignIn 身份提供方登录完成后进入门禁评估
// 不在白名单 → Denied（并清除缓存的验证状态）
// 此前已授权且身份未变化 → 直接 Authorized（免重复输 PIN）
// 其余情况 → PinPending
func (g *Gate) SignIn(userID uint, email string) (State, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.policy.EmailAllowed(email) {
		delete(g.sessions, userID)
		g.sessions[userID] = &session{state: StateDenied, email: email, updatedAt: time.Now()}
		return StateDenied, ErrEmailNotAllowed
	}

	if s, ok := g.sessions[userID]; ok {
		// 身份变化时缓存的验证状态失效
		if s.email != email {
			delete(g.sessions, userID)
		} else if s.state == StateAuthorized {
			s.updatedAt = time.Now()
			return StateAuthorized, nil
		}
	}

	g.sessions[userID] = &session{state: StatePinPending, email: email, updatedAt: time.Now()}
	return StatePinPending, nil
}

// SubmitPIN 提交 PIN
// 正确 → Authorized；错误 → 清除会话并返回 ErrPINMismatch（需要重新登录）
func (g *Gate) SubmitPIN(userID uint, pin string) (State, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.sessions[userID]
	if !ok || s.state != StatePinPending {
		return StateUnauthenticated, ErrNoPendingSignIn
	}

	if !g.policy.VerifyPIN(pin) {
		// PIN 错误按授权失败处理：强制重新登录
		delete(g.sessions, userID)
		return StateUnauthenticated, ErrPINMismatch
	}

	s.state = StateAuthorized
	s.updatedAt = time.Now()
	return StateAuthorized, nil
}

// SignOut 登出，清除缓存的验证状态
func (g *Gate) SignOut(userID uint) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.sessions, userID)
}

// State 查询用户当前的门禁状态
func (g *Gate) State(userID uint) State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if s, ok := g.sessions[userID]; ok {
		return s.state
	}
	return StateUnauthenticated
}

// IsAuthorized 判断用户是否已完成全部门禁
func (g *Gate) IsAuthorized(userID uint) bool {
	return g.State(userID) == StateAuthorized
}
