package handler

import (
	"presencechat/internal/app/chat"
	"presencechat/internal/configs"
)

// AppDeps bundles what the HTTP handlers need.
type AppDeps struct {
	Manager *chat.Manager
	Config  *configs.AppConfig
}
