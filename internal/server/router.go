// Package server assembles the services and the gin engine.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/config"
	_ "github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/docs" // swagger spec
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/events"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/handlers"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/middleware"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/plan"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/services"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/validator"
)

// Services bundles the business services shared by the HTTP server, the
// sweeper and the CLI.
type Services struct {
	Users        services.UserServicer
	Accounts     services.AccountServicer
	CreditCards  services.CreditCardServicer
	Invoices     services.InvoiceServicer
	Settlements  services.SettlementServicer
	Transactions services.TransactionServicer
	Categories   services.CategoryServicer
	Relatives    services.RelativeServicer
	Audit        services.AuditServicer
}

// NewServices wires every service onto db.
func NewServices(db *gorm.DB, publisher events.Publisher, policy plan.Policy) *Services {
	invoices := services.NewInvoiceService(db)
	return &Services{
		Users:        services.NewUserService(db),
		Accounts:     services.NewAccountService(db),
		CreditCards:  services.NewCreditCardService(db),
		Invoices:     invoices,
		Settlements:  services.NewSettlementService(db, publisher),
		Transactions: services.NewTransactionService(db, invoices, publisher, policy),
		Categories:   services.NewCategoryService(db),
		Relatives:    services.NewRelativeService(db),
		Audit:        services.NewAuditService(db),
	}
}

// NewRouter builds the gin engine with every route.
func NewRouter(cfg *config.Config, svc *Services) *gin.Engine {
	validator.Register()

	accountHandler := handlers.NewAccountHandler(svc.Accounts, svc.Audit)
	creditCardHandler := handlers.NewCreditCardHandler(svc.CreditCards, svc.Invoices, svc.Audit)
	invoiceHandler := handlers.NewInvoiceHandler(svc.Invoices, svc.Settlements, svc.Audit)
	transactionHandler := handlers.NewTransactionHandler(svc.Transactions, svc.Audit)
	categoryHandler := handlers.NewCategoryHandler(svc.Categories, svc.Audit)
	relativeHandler := handlers.NewRelativeHandler(svc.Relatives, svc.Audit)
	userHandler := handlers.NewUserHandler(svc.Users)

	router := gin.New()
	router.Use(middleware.RequestLogging())
	router.Use(middleware.Recovery())
	router.Use(middleware.ErrorHandler())
	router.Use(cors())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	operator := v1.Group("/operator")
	operator.Use(middleware.OperatorAuthMiddleware(cfg.OperatorAPIKey))
	operator.POST("/sweep", invoiceHandler.SweepDueOccurrences)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	protected.GET("/profile", userHandler.GetProfile)
	protected.DELETE("/profile", userHandler.DeleteProfile)

	accounts := protected.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.GetUserAccounts)
	accounts.GET("/:id", accountHandler.GetAccountByID)
	accounts.PUT("/:id", accountHandler.UpdateAccount)
	accounts.DELETE("/:id", accountHandler.DeleteAccount)

	cards := protected.Group("/credit-cards")
	cards.POST("", creditCardHandler.CreateCreditCard)
	cards.GET("", creditCardHandler.GetUserCreditCards)
	cards.GET("/:id", creditCardHandler.GetCreditCardByID)
	cards.PUT("/:id", creditCardHandler.UpdateCreditCard)
	cards.DELETE("/:id", creditCardHandler.DeleteCreditCard)
	cards.GET("/:id/invoices", creditCardHandler.GetCardInvoices)

	invoices := protected.Group("/invoices")
	invoices.GET("/:id", invoiceHandler.GetInvoiceByID)
	invoices.POST("/:id/settle", invoiceHandler.SettleInvoice)

	transactions := protected.Group("/transactions")
	transactions.POST("/expense", transactionHandler.CreateExpense)
	transactions.POST("/income", transactionHandler.CreateIncome)
	transactions.POST("/transfer", transactionHandler.CreateTransfer)
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.PATCH("/:id/consolidate", transactionHandler.ConsolidateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetUserCategories)
	categories.GET("/:id", categoryHandler.GetCategoryByID)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	relatives := protected.Group("/relatives")
	relatives.POST("", relativeHandler.CreateRelative)
	relatives.GET("", relativeHandler.GetUserRelatives)
	relatives.GET("/:id", relativeHandler.GetRelativeByID)
	relatives.PUT("/:id", relativeHandler.UpdateRelative)
	relatives.DELETE("/:id", relativeHandler.DeleteRelative)
	relatives.GET("/:id/statement", relativeHandler.GetStatement)

	return router
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
