package mailer

// Message письмо пользователю
type Message struct {
	To      string
	Subject string
	Body    string
}

// Config настройки SMTP
type Config struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
}
