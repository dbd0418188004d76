package styles

// Tip: To find icons use https://github.com/loichyan/nerdfix

var (
	IconComment = "\uf075"
	IconReply   = "\uf112"
	IconBall    = "\U000F0DA9"
)

// Notification icons
var (
	IconNotifyInfo    = "\uf05a"
	IconNotifyWarning = "\uf071"
	IconNotifyError   = "\uf057"
)
