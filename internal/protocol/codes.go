package protocol

// Coded envelope addressing. A coded message rides inside a named frame
// (the main-code name, e.g. "pvp_msg") and carries a numeric main/sub
// code pair. Only the PVP domain is wired today; lobby and story are
// reserved.

const (
	MainNameLobby = "lobby_msg"
	MainNameStory = "story_msg"
	MainNamePVP   = "pvp_msg"
)

const (
	MainCodeLobby = 2001
	MainCodeStory = 2002
	MainCodePVP   = 2003
)

// PVP server -> client sub codes.
const (
	PVPToClientAllPlayersReady     = 1
	PVPToClientGamePrepared        = 2
	PVPToClientGameCountdown       = 3
	PVPToClientGameStarted         = 4
	PVPToClientBattleTimeCountdown = 5
	PVPToClientSpawnItem           = 6
	PVPToClientGateStateChanged    = 7
	PVPToClientGateResetIds        = 8
	PVPToClientDefenderHeroAdded   = 9
	PVPToClientBattleEnded         = 10
	PVPToClientAttackerSpawned     = 11
	PVPToClientDefenderTransform   = 12
	PVPToClientDefenderAddSoldier  = 13
	PVPToClientDefenderDamaged     = 15
	PVPToClientSyncItemEvent       = 16
)

// PVP client -> server sub codes.
const (
	PVPFromClientPlayerReady     = 1
	PVPFromClientAllDefenderDead = 10
	PVPFromClientAttackerSpawn   = 11
	PVPFromClientUpdateTransform = 12
	PVPFromClientAddSoldier      = 13
	PVPFromClientTakeDamage      = 15
)
