package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/AnirudhAnand3/liquid-gold/internal/auth"
	"github.com/AnirudhAnand3/liquid-gold/internal/gamify"
	"github.com/AnirudhAnand3/liquid-gold/internal/wallet"
)

// API is the thin request layer: it parses and range-checks raw input, then
// calls one engine operation and renders the typed result or error.
type API struct {
	engine *wallet.Engine
	tokens *auth.Tokens
}

func NewAPI(engine *wallet.Engine, tokens *auth.Tokens) *API {
	return &API{engine: engine, tokens: tokens}
}

func (a *API) RegisterRoutes(r *gin.Engine) {
	r.POST("/api/login", a.login)

	api := r.Group("/api", a.requireAuth)
	api.GET("/balance", a.balance)
	api.GET("/user", a.currentUser)
	api.GET("/user/lookup", a.lookup)
	api.GET("/transactions", a.transactions)
	api.GET("/analytics", a.analytics)

	api.POST("/deposit", a.deposit)
	api.POST("/withdraw", a.withdraw)
	api.POST("/transfer", a.transfer)

	api.GET("/savings", a.listGoals)
	api.POST("/savings/create", a.createGoal)
	api.POST("/savings/deposit", a.savingsDeposit)
	api.POST("/savings/withdraw", a.savingsWithdraw)
	api.DELETE("/savings/:id", a.deleteGoal)

	api.GET("/notifications", a.notifications)
	api.POST("/notifications/read", a.markNotificationsRead)

	api.GET("/contacts", a.contacts)
	api.POST("/contacts/add", a.addContact)
	api.DELETE("/contacts/:id", a.deleteContact)

	api.GET("/scheduled", a.listScheduled)
	api.POST("/scheduled/create", a.createScheduled)
	api.DELETE("/scheduled/:id", a.deleteScheduled)

	api.GET("/split", a.listBills)
	api.POST("/split/create", a.createSplit)
	api.POST("/split/pay/:id", a.paySplit)

	api.POST("/budget/update", a.updateBudget)
	api.POST("/profile/update", a.updateProfile)
	api.DELETE("/account", a.deleteAccount)
}

const userIDKey = "user_id"

func (a *API) requireAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or malformed authorization header"})
		return
	}
	userID, err := a.tokens.Parse(parts[1])
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	// Deleted accounts keep formally valid tokens; reject them here.
	if _, err := a.engine.User(c.Request.Context(), userID); err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "account no longer exists"})
		return
	}
	c.Set(userIDKey, userID)
	c.Next()
}

func currentUID(c *gin.Context) uint {
	return c.MustGet(userIDKey).(uint)
}

// writeError maps engine sentinels onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	var status int
	switch {
	case errors.Is(err, wallet.ErrInvalidAmount),
		errors.Is(err, wallet.ErrLimitExceeded),
		errors.Is(err, wallet.ErrEmptyMembers),
		errors.Is(err, wallet.ErrNothingToPay),
		errors.Is(err, wallet.ErrDuplicateContact),
		errors.Is(err, gamify.ErrStaleDate):
		status = http.StatusBadRequest
	case errors.Is(err, wallet.ErrSelfReference):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, wallet.ErrRecipientNotFound),
		errors.Is(err, wallet.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, wallet.ErrInsufficientFunds),
		errors.Is(err, wallet.ErrInsufficientSavings):
		status = http.StatusConflict
	default:
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// ── auth ──

type loginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username"`
	Provider string `json:"provider"`
}

// login is the identity-exchange stub: the real deployment sits behind an
// OAuth gateway that has already verified the email.
func (a *API) login(c *gin.Context) {
	var req loginReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Username == "" {
		req.Username = strings.SplitN(req.Email, "@", 2)[0]
	}
	if req.Provider == "" {
		req.Provider = "direct"
	}
	u, err := a.engine.GetOrCreateUser(c.Request.Context(), req.Email, req.Username, req.Provider)
	if err != nil {
		writeError(c, err)
		return
	}
	token, err := a.tokens.Generate(u.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": u})
}

// ── money ──

func (a *API) balance(c *gin.Context) {
	snap, err := a.engine.Balance(c.Request.Context(), currentUID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (a *API) currentUser(c *gin.Context) {
	u, err := a.engine.User(c.Request.Context(), currentUID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (a *API) lookup(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if len(q) < 3 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query too short"})
		return
	}
	u, err := a.engine.Resolve(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id": u.ID, "username": u.Username,
		"account_number": u.AccountNumber, "tier": u.Tier,
	})
}

type depositReq struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Method string          `json:"method"`
}

func (a *API) deposit(c *gin.Context) {
	var req depositReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}
	if req.Method == "" {
		req.Method = "UPI"
	}
	res, err := a.engine.Deposit(c.Request.Context(), currentUID(c), req.Amount, req.Method)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type amountReq struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

func (a *API) withdraw(c *gin.Context) {
	var req amountReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}
	res, err := a.engine.Withdraw(c.Request.Context(), currentUID(c), req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type transferReq struct {
	Identifier  string          `json:"identifier" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
}

func (a *API) transfer(c *gin.Context) {
	var req transferReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := a.engine.Transfer(c.Request.Context(), currentUID(c),
		strings.TrimSpace(req.Identifier), req.Amount, req.Description, req.Category)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (a *API) transactions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	txns, err := a.engine.Transactions(c.Request.Context(), currentUID(c), page, 20)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, txns)
}

func (a *API) analytics(c *gin.Context) {
	daily, categories, err := a.engine.Analytics(c.Request.Context(), currentUID(c), 30)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"daily": daily, "categories": categories})
}

// ── savings ──

type createGoalReq struct {
	Name     string          `json:"name" binding:"required"`
	Target   decimal.Decimal `json:"target" binding:"required"`
	Emoji    string          `json:"emoji"`
	Deadline string          `json:"deadline"`
}

func (a *API) createGoal(c *gin.Context) {
	var req createGoalReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	g, err := a.engine.CreateSavingsGoal(c.Request.Context(), currentUID(c),
		strings.TrimSpace(req.Name), req.Target, req.Emoji, req.Deadline)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"goal": g})
}

func (a *API) listGoals(c *gin.Context) {
	goals, err := a.engine.Goals(c.Request.Context(), currentUID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, goals)
}

type savingsMoveReq struct {
	GoalID uint            `json:"goal_id" binding:"required"`
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

func (a *API) savingsDeposit(c *gin.Context) {
	var req savingsMoveReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := a.engine.SavingsDeposit(c.Request.Context(), currentUID(c), req.GoalID, req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (a *API) savingsWithdraw(c *gin.Context) {
	var req savingsMoveReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := a.engine.SavingsWithdraw(c.Request.Context(), currentUID(c), req.GoalID, req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (a *API) deleteGoal(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := a.engine.DeleteSavingsGoal(c.Request.Context(), currentUID(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ── notifications ──

func (a *API) notifications(c *gin.Context) {
	out, err := a.engine.Notifications(c.Request.Context(), currentUID(c), 30)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (a *API) markNotificationsRead(c *gin.Context) {
	if err := a.engine.MarkNotificationsRead(c.Request.Context(), currentUID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ── contacts ──

type addContactReq struct {
	Identifier string `json:"identifier" binding:"required"`
	Nickname   string `json:"nickname"`
}

func (a *API) addContact(c *gin.Context) {
	var req addContactReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := a.engine.AddContact(c.Request.Context(), currentUID(c),
		strings.TrimSpace(req.Identifier), strings.TrimSpace(req.Nickname))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "username": u.Username})
}

func (a *API) deleteContact(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := a.engine.DeleteContact(c.Request.Context(), currentUID(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (a *API) contacts(c *gin.Context) {
	out, err := a.engine.Contacts(c.Request.Context(), currentUID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// ── scheduled payments ──

type createScheduledReq struct {
	Identifier  string          `json:"identifier" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Frequency   string          `json:"frequency"`
	NextDate    string          `json:"next_date" binding:"required"`
	Description string          `json:"description"`
}

func (a *API) createScheduled(c *gin.Context) {
	var req createScheduledReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sp, err := a.engine.CreateScheduledPayment(c.Request.Context(), currentUID(c),
		strings.TrimSpace(req.Identifier), req.Amount, req.Frequency, req.NextDate, req.Description)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"payment": sp})
}

func (a *API) deleteScheduled(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := a.engine.DeactivateScheduledPayment(c.Request.Context(), currentUID(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (a *API) listScheduled(c *gin.Context) {
	out, err := a.engine.ScheduledFor(c.Request.Context(), currentUID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// ── split bills ──

type createSplitReq struct {
	Title       string                    `json:"title" binding:"required"`
	TotalAmount decimal.Decimal           `json:"total_amount" binding:"required"`
	Description string                    `json:"description"`
	Members     []wallet.SplitMemberInput `json:"members" binding:"required"`
}

func (a *API) createSplit(c *gin.Context) {
	var req createSplitReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	bill, err := a.engine.CreateSplitBill(c.Request.Context(), currentUID(c),
		strings.TrimSpace(req.Title), req.TotalAmount, req.Description, req.Members)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"bill_id": bill.ID})
}

func (a *API) paySplit(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	res, err := a.engine.SettleSplitShare(c.Request.Context(), currentUID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (a *API) listBills(c *gin.Context) {
	out, err := a.engine.BillsFor(c.Request.Context(), currentUID(c), 0)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// ── misc ──

type updateBudgetReq struct {
	ID           uint            `json:"id" binding:"required"`
	MonthlyLimit decimal.Decimal `json:"monthly_limit" binding:"required"`
}

func (a *API) updateBudget(c *gin.Context) {
	var req updateBudgetReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := a.engine.UpdateBudgetLimit(c.Request.Context(), currentUID(c), req.ID, req.MonthlyLimit); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type updateProfileReq struct {
	Username string `json:"username" binding:"required"`
	Bio      string `json:"bio"`
	Phone    string `json:"phone"`
}

func (a *API) updateProfile(c *gin.Context) {
	var req updateProfileReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := a.engine.UpdateProfile(c.Request.Context(), currentUID(c),
		strings.TrimSpace(req.Username), strings.TrimSpace(req.Bio), strings.TrimSpace(req.Phone)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (a *API) deleteAccount(c *gin.Context) {
	if err := a.engine.DeleteAccount(c.Request.Context(), currentUID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func parseID(s string) (uint, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	return uint(v), err
}
