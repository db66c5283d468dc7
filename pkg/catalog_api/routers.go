package catalog_api

import (
	"github.com/gin-gonic/gin"
	"github.com/loopfz/gadgeto/tonic"
	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/handler"
	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/middleware"
	"github.com/wI2L/fizz"
	"github.com/wI2L/fizz/openapi"
)

var apiVersionHeader = fizz.Header(
	"API-Version",
	"The API version of the response",
	"",
)

// RouterConfig wires the controllers and the session secret into the HTTP
// surface.
type RouterConfig struct {
	APIVersion    string
	SessionSecret string
	Vehicles      *handler.VehiclesAPIController
	Account       *handler.AccountAPIController
	Leads         *handler.LeadsAPIController
}

func NewRouter(cfg RouterConfig) *fizz.Fizz {
	g := gin.Default()
	g.Use(APIVersionMiddleware(cfg.APIVersion))
	f := fizz.NewFromEngine(g)

	info := &openapi.Info{
		Title:       "Vitrine Motors API v1",
		Description: "API da vitrine de veículos e do painel administrativo",
		Version:     cfg.APIVersion,
	}

	root := f.Group("/v1", "API v1", "Catalog API v1 routes")

	// Public catalog and funnel endpoints.
	public := root.Group("", "Público", "Endpoints públicos do site")
	public.GET("/vehicles",
		[]fizz.OperationOption{
			fizz.Summary("Listar veículos do catálogo"),
			apiVersionHeader,
		},
		tonic.Handler(cfg.Vehicles.PublicVehicles, 200),
	)
	public.GET("/vehicles/:id",
		[]fizz.OperationOption{
			fizz.Summary("Detalhar um veículo"),
			apiVersionHeader,
		},
		tonic.Handler(cfg.Vehicles.RetrieveVehicle, 200),
	)
	public.POST("/auth/login",
		[]fizz.OperationOption{
			fizz.Summary("Autenticar administrador"),
			apiVersionHeader,
		},
		tonic.Handler(cfg.Account.Login, 200),
	)
	public.POST("/auth/logout",
		[]fizz.OperationOption{
			fizz.Summary("Encerrar sessão"),
			apiVersionHeader,
		},
		tonic.Handler(cfg.Account.Logout, 200),
	)
	public.POST("/leads/simulation",
		[]fizz.OperationOption{
			fizz.Summary("Receber lead de simulação de financiamento"),
			apiVersionHeader,
		},
		tonic.Handler(cfg.Leads.SubmitSimulation, 201),
	)
	public.POST("/leads/interest",
		[]fizz.OperationOption{
			fizz.Summary("Receber lead de interesse"),
			apiVersionHeader,
		},
		tonic.Handler(cfg.Leads.SubmitInterest, 201),
	)
	public.POST("/leads/consignment",
		[]fizz.OperationOption{
			fizz.Summary("Receber lead de consignação"),
			apiVersionHeader,
		},
		tonic.Handler(cfg.Leads.SubmitConsignment, 201),
	)

	// Admin endpoints, behind a session.
	admin := root.Group("/admin", "Admin", "Painel administrativo",
		middleware.RequireSession(cfg.SessionSecret))
	admin.GET("/vehicles",
		[]fizz.OperationOption{
			fizz.Summary("Listar veículos no painel"),
			apiVersionHeader,
		},
		tonic.Handler(cfg.Vehicles.ListVehicles, 200),
	)
	admin.POST("/vehicles",
		[]fizz.OperationOption{
			fizz.Summary("Cadastrar um veículo"),
			apiVersionHeader,
		},
		tonic.Handler(cfg.Vehicles.CreateVehicle, 201),
	)
	admin.PUT("/vehicles/:id",
		[]fizz.OperationOption{
			fizz.Summary("Atualizar um veículo"),
			apiVersionHeader,
		},
		tonic.Handler(cfg.Vehicles.UpdateVehicle, 200),
	)
	admin.DELETE("/vehicles/:id",
		[]fizz.OperationOption{
			fizz.Summary("Excluir um veículo"),
			apiVersionHeader,
		},
		tonic.Handler(cfg.Vehicles.DeleteVehicle, 204),
	)
	admin.POST("/vehicles/:id/images/append",
		[]fizz.OperationOption{
			fizz.Summary("Registrar imagens enviadas por upload direto"),
			apiVersionHeader,
		},
		tonic.Handler(cfg.Vehicles.AppendImages, 201),
	)
	admin.POST("/storage/sign-upload",
		[]fizz.OperationOption{
			fizz.Summary("Assinar um upload direto para o storage"),
			apiVersionHeader,
		},
		tonic.Handler(cfg.Vehicles.SignUpload, 200),
	)
	admin.GET("/me",
		[]fizz.OperationOption{
			fizz.Summary("Perfil do administrador autenticado"),
			apiVersionHeader,
		},
		tonic.Handler(cfg.Account.Me, 200),
	)
	admin.PUT("/me",
		[]fizz.OperationOption{
			fizz.Summary("Atualizar perfil do administrador"),
			apiVersionHeader,
		},
		tonic.Handler(cfg.Account.UpdateMe, 200),
	)

	f.GET("/v1/openapi.json", []fizz.OperationOption{}, f.OpenAPI(info, "json"))

	return f
}

type apiVersionWriter struct {
	gin.ResponseWriter
	version string
}

func (w *apiVersionWriter) WriteHeader(code int) {
	if code >= 200 && code < 300 {
		w.Header().Set("API-Version", w.version)
	}
	w.ResponseWriter.WriteHeader(code)
}

func APIVersionMiddleware(version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer = &apiVersionWriter{c.Writer, version}
		c.Next()
	}
}
