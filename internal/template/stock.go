package template

// Ready-made template strings for common transactional emails. They are
// plain inline templates, suitable for RenderString.

const WelcomeHTML = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>Welcome to {{.app_name}}</title>
</head>
<body>
    <h1>Welcome to {{.app_name}}!</h1>
    <p>Hello {{.user_name}},</p>
    <p>Thank you for joining {{.app_name}}. We're excited to have you on board!</p>
    <p>Best regards,<br>The {{.app_name}} Team</p>
</body>
</html>
`

const WelcomeText = `Welcome to {{.app_name}}!

Hello {{.user_name}},

Thank you for joining {{.app_name}}. We're excited to have you on board!

Best regards,
The {{.app_name}} Team
`

const PasswordResetHTML = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>Password Reset</title>
</head>
<body>
    <h1>Password Reset Request</h1>
    <p>Hello {{.user_name}},</p>
    <p>You requested a password reset for your account.</p>
    <p>Click the link below to reset your password:</p>
    <a href="{{.reset_link}}">Reset Password</a>
    <p>If you didn't request this, please ignore this email.</p>
    <p>Best regards,<br>The {{.app_name}} Team</p>
</body>
</html>
`

const PasswordResetText = `Password Reset Request

Hello {{.user_name}},

You requested a password reset for your account.

Click the link below to reset your password:
{{.reset_link}}

If you didn't request this, please ignore this email.

Best regards,
The {{.app_name}} Team
`
