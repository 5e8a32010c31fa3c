package portal

// User-facing messages. The portal's locale is Japanese; generic
// network/server fallbacks live in package apierr.
const (
	MsgPasswordMismatch = "新しいパスワードが一致しません"
	MsgPasswordTooShort = "パスワードは8文字以上で入力してください"
	MsgPasswordRequired = "現在のパスワードを入力してください"
	MsgPasswordChanged  = "パスワードを変更しました"

	MsgContactEmailInvalid = "メールアドレスの形式が正しくありません"
	MsgContactUpdated      = "連絡先情報を更新しました"

	MsgNotificationUpdated = "通知設定を更新しました"

	MsgPlanRequired = "変更先のプランを選択してください"
	MsgPlanChanged  = "プランの変更を受け付けました"

	MsgOptionRequired = "オプションを選択してください"
	MsgOptionUpdated  = "オプションの変更を受け付けました"

	MsgLoginRequired = "メールアドレスとパスワードを入力してください"
)
