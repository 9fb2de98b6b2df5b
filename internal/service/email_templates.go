package service

import "fmt"

func welcomeEmailTemplate(name, appURL, appName string) (string, string) {
	if name == "" {
		name = "there"
	}
	subject := fmt.Sprintf("Welcome to %s!", appName)
	body := fmt.Sprintf(`Hi %s,

Your account is ready. Find a place to eat and tell others how it was:
%s

Best,
The %s Team`, name, appURL, appName)

	return subject, body
}

func accountDeletedEmailTemplate(name, appName string) (string, string) {
	if name == "" {
		name = "there"
	}
	subject := fmt.Sprintf("Your %s account has been deleted", appName)
	body := fmt.Sprintf(`Hi %s,

Your account, your restaurants and your reviews have been removed.

If you did not request this, please contact our support team.

Best,
The %s Team`, name, appName)

	return subject, body
}
