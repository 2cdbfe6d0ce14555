package catalog

// Node type identifiers understood by the execution engine. The generator
// only ever plans within this vocabulary (plus any overlay entries).
const (
	TypeManualTrigger   = "n8n-nodes-base.manualTrigger"
	TypeScheduleTrigger = "n8n-nodes-base.scheduleTrigger"
	TypeWebhook         = "n8n-nodes-base.webhook"
	TypeHTTPRequest     = "n8n-nodes-base.httpRequest"
	TypeCode            = "n8n-nodes-base.code"
	TypeSet             = "n8n-nodes-base.set"
	TypeIf              = "n8n-nodes-base.if"
	TypeSwitch          = "n8n-nodes-base.switch"
	TypeMerge           = "n8n-nodes-base.merge"
	TypeRespondWebhook  = "n8n-nodes-base.respondToWebhook"
	TypeEmailSend       = "n8n-nodes-base.emailSend"
	TypeSlack           = "n8n-nodes-base.slack"
	TypePostgres        = "n8n-nodes-base.postgres"
	TypeNoOp            = "n8n-nodes-base.noOp"

	TypeAgent          = "@n8n/n8n-nodes-langchain.agent"
	TypeLanguageModel  = "@n8n/n8n-nodes-langchain.lmChatOpenAi"
	TypeMemory         = "@n8n/n8n-nodes-langchain.memoryBufferWindow"
	TypeToolHTTP       = "@n8n/n8n-nodes-langchain.toolHttpRequest"
	TypeDocumentLoader = "@n8n/n8n-nodes-langchain.documentDefaultDataLoader"
	TypeEmbeddings     = "@n8n/n8n-nodes-langchain.embeddingsOpenAi"
	TypeVectorStore    = "@n8n/n8n-nodes-langchain.vectorStoreInMemory"
)

func builtinTemplates() []NodeTemplate {
	return []NodeTemplate{
		{
			Type:        TypeManualTrigger,
			TypeVersion: 1,
			Category:    CategoryTrigger,
			Description: "Starts the workflow when triggered manually",
			DefaultParameters: map[string]any{},
		},
		{
			Type:        TypeScheduleTrigger,
			TypeVersion: 1.2,
			Category:    CategoryTrigger,
			Description: "Starts the workflow on a fixed schedule",
			DefaultParameters: map[string]any{
				"rule": map[string]any{
					"interval": []any{
						map[string]any{"field": "hours", "hoursInterval": 1},
					},
				},
			},
		},
		{
			Type:        TypeWebhook,
			TypeVersion: 2,
			Category:    CategoryTrigger,
			Description: "Starts the workflow on an incoming HTTP request",
			DefaultParameters: map[string]any{
				"httpMethod":   "POST",
				"path":         "webhook",
				"responseMode": "onReceived",
			},
			RequiredParameters: []string{"path"},
		},
		{
			Type:        TypeHTTPRequest,
			TypeVersion: 4.2,
			Category:    CategoryAction,
			Description: "Makes an HTTP request and returns the response",
			DefaultParameters: map[string]any{
				"method":  "GET",
				"url":     "",
				"options": map[string]any{},
			},
			RequiredParameters: []string{"url"},
		},
		{
			Type:        TypeCode,
			TypeVersion: 2,
			Category:    CategoryAction,
			Description: "Runs custom JavaScript on the incoming items",
			DefaultParameters: map[string]any{
				"mode":   "runOnceForAllItems",
				"jsCode": "return items;",
			},
			RequiredParameters: []string{"jsCode"},
		},
		{
			Type:        TypeSet,
			TypeVersion: 3.4,
			Category:    CategoryData,
			Description: "Sets or renames fields on the incoming items",
			DefaultParameters: map[string]any{
				"mode":        "manual",
				"assignments": map[string]any{"assignments": []any{}},
			},
		},
		{
			Type:        TypeIf,
			TypeVersion: 2.2,
			Category:    CategoryFlow,
			Description: "Routes items down the true or false branch",
			DefaultParameters: map[string]any{
				"conditions": map[string]any{
					"combinator": "and",
					"conditions": []any{},
				},
			},
		},
		{
			Type:        TypeSwitch,
			TypeVersion: 3.2,
			Category:    CategoryFlow,
			Description: "Routes items to one of several outputs",
			DefaultParameters: map[string]any{
				"mode":  "rules",
				"rules": map[string]any{"values": []any{}},
			},
		},
		{
			Type:        TypeMerge,
			TypeVersion: 3,
			Category:    CategoryFlow,
			Description: "Merges items from multiple branches",
			DefaultParameters: map[string]any{
				"mode": "append",
			},
		},
		{
			Type:        TypeRespondWebhook,
			TypeVersion: 1.1,
			Category:    CategoryAction,
			Description: "Returns a response to the calling webhook",
			DefaultParameters: map[string]any{
				"respondWith": "allIncomingItems",
			},
		},
		{
			Type:        TypeEmailSend,
			TypeVersion: 2.1,
			Category:    CategoryAction,
			Description: "Sends an email over SMTP",
			DefaultParameters: map[string]any{
				"fromEmail": "",
				"toEmail":   "",
				"subject":   "",
			},
			RequiredParameters:  []string{"toEmail"},
			CredentialsRequired: true,
			DefaultCredentials:  "smtp",
		},
		{
			Type:        TypeSlack,
			TypeVersion: 2.2,
			Category:    CategoryAction,
			Description: "Sends a message to a Slack channel",
			DefaultParameters: map[string]any{
				"resource":  "message",
				"operation": "post",
				"text":      "",
			},
			CredentialsRequired: true,
			DefaultCredentials:  "slackApi",
		},
		{
			Type:        TypePostgres,
			TypeVersion: 2.5,
			Category:    CategoryAction,
			Description: "Runs a query against a Postgres database",
			DefaultParameters: map[string]any{
				"operation": "executeQuery",
				"query":     "",
			},
			RequiredParameters:  []string{"query"},
			CredentialsRequired: true,
			DefaultCredentials:  "postgres",
		},
		{
			Type:        TypeNoOp,
			TypeVersion: 1,
			Category:    CategoryData,
			Description: "Passes items through unchanged",
			DefaultParameters: map[string]any{},
		},
		{
			Type:        TypeAgent,
			TypeVersion: 1.7,
			Category:    CategoryAI,
			Description: "Runs an AI agent over connected model, memory and tools",
			DefaultParameters: map[string]any{
				"promptType": "auto",
				"options":    map[string]any{},
			},
		},
		{
			Type:        TypeLanguageModel,
			TypeVersion: 1,
			Category:    CategoryAI,
			Description: "Chat language model consumed by agent nodes",
			DefaultParameters: map[string]any{
				"model":   "gpt-4o-mini",
				"options": map[string]any{},
			},
			CredentialsRequired: true,
			DefaultCredentials:  "openAiApi",
		},
		{
			Type:        TypeMemory,
			TypeVersion: 1.3,
			Category:    CategoryAI,
			Description: "Windowed buffer memory for agent conversations",
			DefaultParameters: map[string]any{
				"contextWindowLength": 5,
			},
		},
		{
			Type:        TypeToolHTTP,
			TypeVersion: 1.1,
			Category:    CategoryAI,
			Description: "HTTP request exposed to an agent as a tool",
			DefaultParameters: map[string]any{
				"method": "GET",
				"url":    "",
			},
			RequiredParameters: []string{"url"},
		},
		{
			Type:        TypeDocumentLoader,
			TypeVersion: 1,
			Category:    CategoryAI,
			Description: "Loads documents for vector store ingestion",
			DefaultParameters: map[string]any{
				"dataType": "json",
			},
		},
		{
			Type:        TypeEmbeddings,
			TypeVersion: 1.2,
			Category:    CategoryAI,
			Description: "Computes embeddings for vector store operations",
			DefaultParameters: map[string]any{
				"options": map[string]any{},
			},
			CredentialsRequired: true,
			DefaultCredentials:  "openAiApi",
		},
		{
			Type:        TypeVectorStore,
			TypeVersion: 1.1,
			Category:    CategoryAI,
			Description: "In-memory vector store for retrieval",
			DefaultParameters: map[string]any{
				"mode": "insert",
			},
		},
	}
}
