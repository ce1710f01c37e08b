package crmchat

// Version is set at build time with -ldflags "-X github.com/a-h/crmchat.Version=...".
var Version = "dev"
