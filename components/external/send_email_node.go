/*
 * Copyright 2025 The Scadaflow Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package external

//Node configuration example:
//{
//        "id": "s2",
//        "type": "sendEmail",
//        "name": "notify operators",
//        "debugMode": false,
//        "configuration": {
//          "smtpHost": "smtp.example.com",
//          "smtpPort": 587,
//          "username": "alerts@example.com",
//          "password": "********",
//          "email": {
//            "from": "alerts@example.com",
//            "to": "ops@example.com",
//            "subject": "High pressure on ${assetId}",
//            "body": "Pressure alarm raised for well ${assetId}"
//          }
//        }
//      }
import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/scadaflow/scadaflow/api/types"
	"github.com/scadaflow/scadaflow/utils/maps"
	"github.com/scadaflow/scadaflow/utils/str"
)

const addressSep = ","

func init() {
	Registry.Add(&SendEmailNode{})
}

// Email the mail envelope and content
type Email struct {
	//From sender address
	From string
	//To recipient addresses, separated by `,`
	To string
	//Cc carbon copy addresses, separated by `,`
	Cc string
	//Bcc blind carbon copy addresses, separated by `,`
	Bcc string
	//Subject of the mail, `${key}` placeholders read metadata values
	Subject string
	//Body of the mail in HTML, `${key}` placeholders read metadata values
	Body string
}

func (e *Email) createEmailMsg(metadata map[string]string) ([]byte, []string) {
	subject := str.SprintfDict(e.Subject, metadata)
	body := str.SprintfDict(e.Body, metadata)

	sendTo := strings.Split(e.To, addressSep)
	if e.Cc != "" {
		sendTo = append(sendTo, strings.Split(e.Cc, addressSep)...)
	}
	if e.Bcc != "" {
		sendTo = append(sendTo, strings.Split(e.Bcc, addressSep)...)
	}

	// RFC 822 message
	msg := []byte("To: " + e.To + "\r\n" +
		"From: " + e.From + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"Cc: " + e.Cc + "\r\n" +
		"Bcc: " + e.Bcc + "\r\n" +
		"Content-Type: text/html; charset=UTF-8\r\n" +
		"\r\n" +
		body)
	return msg, sendTo
}

func (e *Email) SendEmail(addr string, auth smtp.Auth, metadata map[string]string) error {
	msg, sendTo := e.createEmailMsg(metadata)
	return smtp.SendMail(addr, auth, e.From, sendTo, msg)
}

// SendEmailWithTls dials with TLS from the start, for servers on 465
// that do not speak STARTTLS.
func (e *Email) SendEmailWithTls(addr string, auth smtp.Auth, metadata map[string]string) error {
	msg, sendTo := e.createEmailMsg(metadata)

	host, _, _ := net.SplitHostPort(addr)
	conn, err := tls.Dial("tcp", addr, &tls.Config{
		InsecureSkipVerify: true,
		ServerName:         host,
	})
	if err != nil {
		return err
	}
	c, err := smtp.NewClient(conn, host)
	if err != nil {
		return err
	}
	defer c.Close()
	if err = c.Auth(auth); err != nil {
		return err
	}
	if err = c.Mail(e.From); err != nil {
		return err
	}
	for _, addr := range sendTo {
		if err = c.Rcpt(addr); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err = w.Write(msg); err != nil {
		return err
	}
	if err = w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

// SendEmailConfiguration node configuration
type SendEmailConfiguration struct {
	//SmtpHost smtp server host
	SmtpHost string
	//SmtpPort smtp server port
	SmtpPort int
	//Username for authentication
	Username string
	//Password or authorization code
	Password string
	//EnableTls dials with TLS instead of plain SMTP
	EnableTls bool
	//Email content configuration
	Email Email
}

// SendEmailNode sends the message as a mail through a SMTP server.
// On success the message goes to the `Success` chain, otherwise to the
// `Failure` chain.
type SendEmailNode struct {
	//node configuration
	Config   SendEmailConfiguration
	smtpAddr string
	smtpAuth smtp.Auth
}

// Type component type
func (x *SendEmailNode) Type() string {
	return "sendEmail"
}

func (x *SendEmailNode) New() types.Node {
	return &SendEmailNode{}
}

// Init initializes the component
func (x *SendEmailNode) Init(ruleConfig types.Config, configuration types.Configuration) error {
	err := maps.Map2Struct(configuration, &x.Config)
	if err == nil {
		if x.Config.Email.To == "" {
			return errors.New("to address can not be empty")
		}
		x.smtpAddr = fmt.Sprintf("%s:%d", x.Config.SmtpHost, x.Config.SmtpPort)
		x.smtpAuth = smtp.PlainAuth("", x.Config.Username, x.Config.Password, x.Config.SmtpHost)
	}
	return err
}

// OnMsg processes the message
func (x *SendEmailNode) OnMsg(ctx types.RuleContext, msg types.RuleMsg) {
	metadata := msg.Metadata.Values()
	var err error
	if x.Config.EnableTls {
		err = x.Config.Email.SendEmailWithTls(x.smtpAddr, x.smtpAuth, metadata)
	} else {
		err = x.Config.Email.SendEmail(x.smtpAddr, x.smtpAuth, metadata)
	}
	if err != nil {
		ctx.TellFailure(msg, err)
	} else {
		ctx.TellSuccess(msg)
	}
}

// Destroy releases resources
func (x *SendEmailNode) Destroy() {
}
